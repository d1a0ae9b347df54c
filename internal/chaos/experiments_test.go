package chaos_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"libraryhub/internal/chaos"
	"libraryhub/internal/clients"
	"libraryhub/internal/config"
	"libraryhub/internal/domain"
	"libraryhub/internal/membership"
	"libraryhub/internal/server"
	"libraryhub/internal/store/storetest"
)

func adminClient(t *testing.T) *clients.LibraryClient {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{
		Auth: config.Auth{
			JWTSecret:          "chaos-secret",
			JWTIssuer:          "libraryhub",
			JWTTTL:             time.Hour,
			BcryptCost:         bcrypt.MinCost,
			LoginRatePerMinute: 600,
			LoginRateBurst:     10,
		},
		Covers: config.Covers{FetchTimeout: time.Second, MaxBytes: 1024},
	}
	s := storetest.SQLite(t)

	_, err := membership.NewRegistry(s, cfg.Auth.BcryptCost, zerolog.Nop()).CreatePerson(ctx, domain.PersonInput{
		Name:        "Chaos Admin Person",
		Age:         40,
		Email:       "chaos@example.com",
		PhoneNumber: "+79990000000",
		Password:    "chaos-pass",
		Role:        domain.RoleAdmin,
	}, "bootstrap")
	require.NoError(t, err)

	srv := httptest.NewServer(server.Build(cfg, s, zerolog.Nop()))
	t.Cleanup(srv.Close)

	admin, err := clients.NewLibraryClient(srv.URL, srv.Client()).Login(ctx, "Chaos Admin Person", "chaos-pass")
	require.NoError(t, err)
	return admin
}

func TestCustodyExperiments(t *testing.T) {
	admin := adminClient(t)
	e := chaos.NewEngine(zerolog.Nop(), 10*time.Millisecond)
	e.RegisterExperiments(admin, 6, 30*time.Millisecond)
	require.Len(t, e.Experiments(), 2)

	for _, exp := range e.Experiments() {
		t.Run(exp.Name, func(t *testing.T) {
			result, err := e.RunExperiment(context.Background(), exp)
			require.NoError(t, err)
			assert.True(t, result.HypothesisHeld, "failed: %v, errors: %v", result.Failed, result.ErrorEvents)
			assert.Empty(t, result.ErrorEvents)

			winners := result.Observations["custody_winners"]
			require.NotEmpty(t, winners)
			assert.Equal(t, 1.0, winners[len(winners)-1].Value)
		})
	}
}
