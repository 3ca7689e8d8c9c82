package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/taskplan/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config without scheduling",
		Long: "validate loads the config, parses every timestamp and recurrence rule,\n" +
			"expands the plan blocks, and checks the task list (including dependency\n" +
			"cycles) without running the scheduler.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			inputs, err := cfg.Build()
			if err != nil {
				return err
			}

			fmt.Printf("%s: ok\n", flagConfig)
			fmt.Printf("  window:      %s\n", inputs.Window)
			fmt.Printf("  granularity: %s\n", inputs.Granularity)
			fmt.Printf("  tasks:       %d\n", len(inputs.Tasks))
			fmt.Printf("  plan blocks: %d\n", inputs.Plans.Len())
			return nil
		},
	}
}
