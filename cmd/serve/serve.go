// Package serve implements the serve command.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/httpserver"
)

// Command creates the serve command.
func Command(ctx *app.Context) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := ctx.Settings.Server
			if cmd.Flags().Changed("listen") {
				config.Listen = listen
			}

			server, err := httpserver.New(config, ctx.Assets, ctx.Entities,
				httpserver.WithMetrics(ctx.Metrics))
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from server.listen)")

	return cmd
}
