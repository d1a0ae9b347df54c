// Package storetest opens throwaway databases for tests.
package storetest

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"libraryhub/internal/store"
)

// SQLite returns a migrated in-memory store private to the test.
func SQLite(t testing.TB) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	s, err := store.Open(store.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate sqlite store: %v", err)
	}
	return s
}

// Postgres connects to the database described by the PG* environment
// variables. It skips the test if the connection cannot be established.
func Postgres(t testing.TB) *store.Store {
	t.Helper()

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("PGHOST", "localhost"),
		env("PGPORT", "5432"),
		env("PGUSER", "user"),
		env("PGPASSWORD", "password"),
		env("PGDATABASE", "testdb"),
	)

	s, err := store.Open(store.DriverPostgres, connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("skipping postgres tests: could not connect to postgres: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
