package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"libraryhub/internal/server"
	"libraryhub/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := environment()
			if err := cfg.Validate(); err != nil {
				log.Error().Err(err).Msg("invalid configuration")
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTelemetry, err := telemetry.Setup(ctx, "libraryhub", cfg.Telemetry.OTLPEndpoint)
			if err != nil {
				log.Error().Err(err).Msg("failed to set up telemetry")
				return err
			}

			s, err := openStore(ctx, cfg)
			if err != nil {
				log.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open database")
				return err
			}
			defer s.Close()

			return server.Run(ctx, cfg.Addr(), server.Build(cfg, s, log), cfg.Global.ShutdownTimeout, log, func(ctx context.Context) {
				if err := shutdownTelemetry(ctx); err != nil {
					log.Error().Err(err).Msg("failed to flush telemetry")
				}
			})
		},
	}
}
