package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/health")
			if err != nil {
				return fmt.Errorf("get health: %w", err)
			}

			var data struct {
				Status    string `json:"status"`
				Version   string `json:"version"`
				GoVersion string `json:"go_version"`
				Uptime    string `json:"uptime"`
				Policies  int    `json:"policies"`
				Store     string `json:"store"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Server:   %s\n", client.BaseURL)
			fmt.Printf("  Status:   %s\n", data.Status)
			fmt.Printf("  Version:  %s (%s)\n", data.Version, data.GoVersion)
			fmt.Printf("  Uptime:   %s\n", data.Uptime)
			fmt.Printf("  Policies: %d\n", data.Policies)
			fmt.Printf("  Store:    %s\n", data.Store)

			return nil
		},
	}
}
