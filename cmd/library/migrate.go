package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := environment()

			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				log.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("migration failed")
				return err
			}
			defer s.Close()

			log.Info().Str("driver", s.Driver()).Msg("schema is up to date")
			return nil
		},
	}
}
