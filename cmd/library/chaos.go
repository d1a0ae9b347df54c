package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"libraryhub/internal/chaos"
	"libraryhub/internal/clients"
)

func newChaosCmd() *cobra.Command {
	var (
		baseURL  string
		admin    string
		workers  int
		duration time.Duration
		interval time.Duration
		pause    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chaos",
		Short: "Race custody requests against a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log := environment()

			password := os.Getenv("LIBRARY_ADMIN_PASSWORD")
			if password == "" {
				var err error
				if password, err = readPassword("Password for " + admin + ": "); err != nil {
					return err
				}
			}

			client := clients.NewLibraryClient(baseURL, &http.Client{Timeout: 30 * time.Second})
			lib, err := client.Login(cmd.Context(), admin, password)
			if err != nil {
				log.Error().Err(err).Str("url", baseURL).Msg("admin login failed")
				return err
			}

			engine := chaos.NewEngine(log, interval)
			engine.RegisterExperiments(lib, workers, duration)

			runErr := engine.ExecuteGameDay(cmd.Context(), chaos.GameDay{
				Name:      "custody races",
				Date:      time.Now(),
				Scenarios: engine.Experiments(),
				Pause:     pause,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(engine.Results()); err != nil {
				return err
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the library API")
	f.StringVar(&admin, "admin", "", "name of an ADMIN account; its password is read from LIBRARY_ADMIN_PASSWORD or prompted")
	f.IntVar(&workers, "workers", 20, "concurrent requests per contested book")
	f.DurationVar(&duration, "duration", 5*time.Second, "observation time per experiment")
	f.DurationVar(&interval, "interval", time.Second, "metric sampling interval")
	f.DurationVar(&pause, "pause", 0, "pause between experiments")
	cmd.MarkFlagRequired("admin")
	return cmd
}
