package cli

import (
	"github.com/spf13/cobra"

	"github.com/me/taskplan/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Compute the schedule and serve it over HTTP",
		Long: "serve runs one scheduling pass and exposes the result on a small\n" +
			"read-only JSON API: /healthz, /api/v1/schedule, /api/v1/tasks,\n" +
			"/api/v1/missed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, inputs, err := buildDriver(flagConfig)
			if err != nil {
				return err
			}
			if err := drv.Run(cmd.Context()); err != nil {
				return err
			}

			srv := server.New(drv, inputs.Location, logger)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")

	return cmd
}
