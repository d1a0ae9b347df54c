// internal/store/custody.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libraryhub/internal/domain"
)

// Tx exposes the reads and writes a custody change needs inside one
// transaction. Only Tx methods may be used while it is open.
type Tx struct {
	tx     *sqlx.Tx
	tracer trace.Tracer
	now    func() time.Time
}

// LockBook loads a book for update. On postgres the row stays locked until
// the transaction ends; sqlite already serializes writers.
func (t *Tx) LockBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	ctx, span := t.tracer.Start(ctx, "store.lock_book",
		trace.WithAttributes(attribute.String("book.id", id.String())))
	defer span.End()

	query := `SELECT ` + bookColumns + ` FROM book WHERE book_id = ?`
	if t.tx.DriverName() == DriverPostgres {
		query += ` FOR UPDATE`
	}

	var b domain.Book
	if err := t.tx.GetContext(ctx, &b, t.tx.Rebind(query), id); err != nil {
		return nil, fail(span, translate(err, "book "+id.String()))
	}
	return &b, nil
}

func (t *Tx) GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	var p domain.Person
	err := t.tx.GetContext(ctx, &p, t.tx.Rebind(`SELECT `+personColumns+` FROM person WHERE id = ?`), id)
	if err != nil {
		return nil, translate(err, "person "+id.String())
	}
	return &p, nil
}

// Transition describes one custody change of a locked book.
type Transition struct {
	Operation domain.Operation
	To        domain.Status
	// Owner is the borrower after the change; nil unless To is ASSIGNED.
	Owner *uuid.UUID
	// Person is recorded in the history: the borrower or the viewer.
	Person *uuid.UUID
	Actor  string
}

// ApplyTransition writes the new status and owner of b, guarded by the
// version b was read at, and appends the matching custody event. A lost
// race surfaces as domain.ErrConflict. On success b reflects the new state.
func (t *Tx) ApplyTransition(ctx context.Context, b *domain.Book, tr Transition) error {
	ctx, span := t.tracer.Start(ctx, "store.apply_transition",
		trace.WithAttributes(
			attribute.String("book.id", b.ID.String()),
			attribute.String("custody.operation", string(tr.Operation)),
			attribute.String("custody.from", string(b.Status)),
			attribute.String("custody.to", string(tr.To)),
			attribute.Int("expected.version", b.Version),
		),
	)
	defer span.End()

	next := *b
	next.Status = tr.To
	next.OwnerID = tr.Owner
	next.Version = b.Version + 1
	if err := next.CheckCustody(); err != nil {
		return fail(span, fmt.Errorf("illegal custody state for book %s: %w", b.ID, err))
	}

	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		UPDATE book SET status = ?, person_id = ?, version = ?
		WHERE book_id = ? AND version = ?
	`), next.Status, next.OwnerID, next.Version, b.ID, b.Version)
	if err != nil {
		return fail(span, fmt.Errorf("update custody: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return fail(span, fmt.Errorf("%w: book %s was changed concurrently", domain.ErrConflict, b.ID))
	}

	event := domain.CustodyEvent{
		BookID:     b.ID,
		PersonID:   tr.Person,
		Operation:  tr.Operation,
		FromStatus: b.Status,
		ToStatus:   next.Status,
		Actor:      tr.Actor,
		Version:    next.Version,
		CreatedAt:  t.now(),
	}
	_, err = t.tx.NamedExecContext(ctx, `
		INSERT INTO custody_events (book_id, person_id, operation, from_status, to_status, actor, version, created_at)
		VALUES (:book_id, :person_id, :operation, :from_status, :to_status, :actor, :version, :created_at)
	`, event)
	if err != nil {
		return fail(span, translate(fmt.Errorf("append custody event: %w", err), "custody event"))
	}

	span.AddEvent("custody.applied", trace.WithAttributes(attribute.Int("event.version", next.Version)))
	*b = next
	return nil
}

// History returns the custody events of a book, oldest first.
func (s *Store) History(ctx context.Context, bookID uuid.UUID) ([]domain.CustodyEvent, error) {
	ctx, span := s.tracer.Start(ctx, "store.history",
		trace.WithAttributes(attribute.String("book.id", bookID.String())))
	defer span.End()

	if _, err := s.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	events := []domain.CustodyEvent{}
	err := s.db.SelectContext(ctx, &events, s.db.Rebind(`
		SELECT id, book_id, person_id, operation, from_status, to_status, actor, version, created_at
		FROM custody_events
		WHERE book_id = ?
		ORDER BY version ASC
	`), bookID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("query custody events: %w", err))
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}
