package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/me/taskplan/internal/config"
	"github.com/me/taskplan/internal/scheduler"
)

func newPlanCmd() *cobra.Command {
	var (
		outPath string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the schedule and write it out",
		Long: "plan loads the config, expands the recurring calendar blocks, runs the\n" +
			"scheduler over the window, and writes the day-grouped schedule. Tasks\n" +
			"whose volume did not fit are reported as missed deadlines; that is a\n" +
			"normal outcome, not an error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchAndPlan(cmd.Context(), flagConfig, outPath)
			}
			return runPlan(cmd.Context(), flagConfig, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "Schedule output file (\"-\" for stdout)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and recompute when the config changes")

	return cmd
}

// runPlan executes one full scheduling pass.
func runPlan(ctx context.Context, cfgPath, outPath string) error {
	drv, inputs, err := buildDriver(cfgPath)
	if err != nil {
		return err
	}

	if err := drv.Run(ctx); err != nil {
		return err
	}

	report := scheduler.BuildReport(drv.Schedule(), inputs.Location)
	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	if err := writeSchedule(os.Stdout, outPath, out); err != nil {
		return err
	}

	for _, m := range drv.MissedDeadlines() {
		fmt.Fprintf(os.Stderr, "missed deadline: %s, needs %s more hour(s)\n",
			m.Description, humanize.Ftoa(float64(m.ShortfallHours)))
	}

	return nil
}

// writeSchedule writes the marshalled schedule to path, or to stdout when
// path is "-".
func writeSchedule(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write schedule: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}
	logger.Info("schedule written", "path", path)
	return nil
}

// buildDriver loads the config and constructs a ready-to-run driver.
func buildDriver(cfgPath string) (*scheduler.Driver, *config.Inputs, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	inputs, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	drv, err := scheduler.NewDriver(scheduler.Config{
		Window:      inputs.Window,
		Granularity: inputs.Granularity,
	}, inputs.Tasks, inputs.Plans, inputs.Heuristics, logger)
	if err != nil {
		return nil, nil, err
	}
	return drv, inputs, nil
}
