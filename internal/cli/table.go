package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/gohm/pkg/model"
	"github.com/spf13/cobra"
)

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table <policy> <kind>",
		Short: "Dump a policy's in-memory table (measurements, symptoms, diagnosis, actions)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, kind := args[0], args[1]

			resp, err := client.Get("/api/v1/policies/" + policy + "/" + kind)
			if err != nil {
				return fmt.Errorf("get table: %w", err)
			}

			var snap model.TableSnapshot
			if err := json.Unmarshal(resp.Data, &snap); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out, err := json.MarshalIndent(snap.Entries, "", "  ")
			if err != nil {
				return fmt.Errorf("render entries: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
