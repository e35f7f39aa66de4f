package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/gohm/pkg/model"
	"github.com/spf13/cobra"
)

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies [name]",
		Short: "List registered policies, or show one policy's status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return showPolicy(args[0])
			}
			return listPolicies()
		},
	}
}

func listPolicies() error {
	resp, err := client.Get("/api/v1/policies")
	if err != nil {
		return fmt.Errorf("list policies: %w", err)
	}

	var policies []model.PolicyStatus
	if err := json.Unmarshal(resp.Data, &policies); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if len(policies) == 0 {
		fmt.Println("No policies registered.")
		return nil
	}

	fmt.Printf("%-24s %-12s %-12s %-10s %-10s %-8s\n",
		"NAME", "NEXT DUE", "MEASUREMENTS", "SYMPTOMS", "DIAGNOSIS", "ACTIONS")
	for _, p := range policies {
		fmt.Printf("%-24s %-12s %-12d %-10d %-10d %-8d\n",
			p.Name, p.Delay,
			p.Tables["measurements"], p.Tables["symptoms"],
			p.Tables["diagnosis"], p.Tables["actions"])
	}
	return nil
}

func showPolicy(name string) error {
	resp, err := client.Get("/api/v1/policies/" + name)
	if err != nil {
		return fmt.Errorf("get policy: %w", err)
	}

	var p model.PolicyStatus
	if err := json.Unmarshal(resp.Data, &p); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	fmt.Printf("Policy: %s\n", p.Name)
	fmt.Printf("  Next due: %s\n", p.Delay)
	fmt.Println("  Tables:")
	for _, kind := range []string{"measurements", "symptoms", "diagnosis", "actions"} {
		fmt.Printf("    %-13s %d\n", kind+":", p.Tables[kind])
	}
	return nil
}
