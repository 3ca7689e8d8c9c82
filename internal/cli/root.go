// Package cli implements the taskplan command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/taskplan/internal/logging"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// defaultConfig returns the default config path, checking TASKPLAN_CONFIG
// env var first.
func defaultConfig() string {
	if p := os.Getenv("TASKPLAN_CONFIG"); p != "" {
		return p
	}
	return "taskplan.yaml"
}

// NewRootCmd creates the root cobra command for the taskplan CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskplan",
		Short: "taskplan — greedy calendar-aware task scheduler",
		Long: "taskplan fits a set of deadline-driven tasks into the free time\n" +
			"left between pre-committed calendar blocks and writes a day-by-day\n" +
			"schedule.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(flagLogLevel, flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", defaultConfig(), "Config file (or TASKPLAN_CONFIG env)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newPlanCmd(),
		newValidateCmd(),
		newServeCmd(),
	)

	return root
}
