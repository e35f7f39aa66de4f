// Package cli implements the gohm command line client. Commands talk to a
// running GoHM daemon over its REST API.
package cli

import (
	"log/slog"
	"os"

	"github.com/me/gohm/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking GOHM_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("GOHM_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the gohm CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gohm",
		Short: "GoHM — health policy manager",
		Long:  "GoHM runs periodic health policies (sense, detect, diagnose, resolve) and serves their execution history.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(logging.Options{Level: flagLogLevel, Format: flagLogFormat})
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "GoHM server URL (or GOHM_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newStatusCmd(),
		newPoliciesCmd(),
		newTableCmd(),
		newArtifactsCmd(),
	)

	return root
}
