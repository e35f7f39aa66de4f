package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/gohm/pkg/model"
	"github.com/spf13/cobra"
)

func newArtifactsCmd() *cobra.Command {
	var flagLimit, flagOffset int

	cmd := &cobra.Command{
		Use:   "artifacts <policy> <kind>",
		Short: "List archived table rows from the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, kind := args[0], args[1]

			path := fmt.Sprintf("/api/v1/policies/%s/%s/artifacts?limit=%d&offset=%d",
				policy, kind, flagLimit, flagOffset)
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list artifacts: %w", err)
			}

			var rows []model.Artifact
			if err := json.Unmarshal(resp.Data, &rows); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if resp.Pagination != nil {
				fmt.Printf("Showing %d of %d archived %s for %s\n",
					len(rows), resp.Pagination.Total, kind, policy)
			}
			for _, row := range rows {
				fmt.Printf("%6d  %s  %s\n", row.Seq, row.RecordedAt.Format("2006-01-02 15:04:05"), row.Payload)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 50, "Maximum rows to return")
	cmd.Flags().IntVar(&flagOffset, "offset", 0, "Rows to skip")
	return cmd
}
