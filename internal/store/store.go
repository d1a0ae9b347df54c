// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"libraryhub/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Filter selects rows by their soft-delete marker.
type Filter int

const (
	All Filter = iota
	Active
	Removed
)

func (f Filter) where() string {
	switch f {
	case Active:
		return " WHERE removed_at IS NULL"
	case Removed:
		return " WHERE removed_at IS NOT NULL"
	default:
		return ""
	}
}

// Store is the durable record store for people, books and custody history.
type Store struct {
	db     *sqlx.DB
	tracer trace.Tracer
	now    func() time.Time
}

// Open connects to a postgres or sqlite3 database.
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite has a single writer; one connection serializes every
		// transaction and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("libraryhub/store"),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Driver returns the name of the underlying database driver.
func (s *Store) Driver() string {
	return s.db.DriverName()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "store.migrate")
	defer span.End()

	statements := sqliteSchema
	if s.Driver() == DriverPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fail(span, fmt.Errorf("migrate: %w", err))
		}
	}
	return nil
}

// InTx runs fn in a single transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	ctx, span := s.tracer.Start(ctx, "store.tx")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail(span, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx, tracer: s.tracer, now: s.now}); err != nil {
		return fail(span, err)
	}

	if err := tx.Commit(); err != nil {
		return fail(span, fmt.Errorf("commit transaction: %w", translate(err, "row")))
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// translate maps driver errors onto the domain taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
