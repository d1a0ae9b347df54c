// internal/circulation/implementation.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"libraryhub/internal/domain"
	"libraryhub/internal/store"
)

// Desk applies custody transitions. Each call is one transaction touching
// one book row and at most one person.
type Desk struct {
	store       *store.Store
	log         zerolog.Logger
	tracer      trace.Tracer
	transitions metric.Int64Counter
}

var _ Service = (*Desk)(nil)

// Option configures a Desk.
type Option func(*deskOptions)

type deskOptions struct {
	meters metric.MeterProvider
}

// WithMeterProvider records custody metrics through mp instead of the
// global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *deskOptions) { o.meters = mp }
}

// NewDesk creates a custody desk over the given store.
func NewDesk(s *store.Store, log zerolog.Logger, opts ...Option) *Desk {
	o := deskOptions{meters: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}

	counter, err := o.meters.Meter("libraryhub/circulation").Int64Counter(
		"library.custody.transitions",
		metric.WithDescription("Custody transitions by operation and outcome"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("custody transition counter disabled")
		counter = noop.Int64Counter{}
	}

	return &Desk{
		store:       s,
		log:         log.With().Str("component", "circulation").Logger(),
		tracer:      otel.Tracer("libraryhub/circulation"),
		transitions: counter,
	}
}

// Assign hands a FREE book to a person.
func (d *Desk) Assign(ctx context.Context, bookID, personID uuid.UUID, actor string) (*domain.Book, error) {
	return d.apply(ctx, domain.OpAssign, bookID, &personID, actor)
}

// Free takes an ASSIGNED book back from its owner.
func (d *Desk) Free(ctx context.Context, bookID uuid.UUID, actor string) (*domain.Book, error) {
	return d.apply(ctx, domain.OpFree, bookID, nil, actor)
}

// ViewCover starts a cover preview. The returned book carries the image.
func (d *Desk) ViewCover(ctx context.Context, bookID, personID uuid.UUID, actor string) (*domain.Book, error) {
	return d.apply(ctx, domain.OpViewCover, bookID, &personID, actor)
}

func (d *Desk) ViewContent(ctx context.Context, bookID, personID uuid.UUID, actor string) (*domain.Book, error) {
	return d.apply(ctx, domain.OpViewContent, bookID, &personID, actor)
}

// ReleaseAfterViewing ends a preview. Books that are not being viewed are
// returned unchanged.
func (d *Desk) ReleaseAfterViewing(ctx context.Context, bookID uuid.UUID, actor string) (*domain.Book, error) {
	return d.apply(ctx, domain.OpRelease, bookID, nil, actor)
}

// History lists the custody events of a book.
func (d *Desk) History(ctx context.Context, bookID uuid.UUID) ([]domain.CustodyEvent, error) {
	return d.store.History(ctx, bookID)
}

func (d *Desk) apply(ctx context.Context, op domain.Operation, bookID uuid.UUID, personID *uuid.UUID, actor string) (*domain.Book, error) {
	attrs := []attribute.KeyValue{
		attribute.String("book.id", bookID.String()),
		attribute.String("custody.operation", string(op)),
	}
	if personID != nil {
		attrs = append(attrs, attribute.String("person.id", personID.String()))
	}
	ctx, span := d.tracer.Start(ctx, "circulation."+strings.ToLower(string(op)), trace.WithAttributes(attrs...))
	defer span.End()

	var (
		book    *domain.Book
		from    domain.Status
		changed bool
	)
	err := d.store.InTx(ctx, func(tx *store.Tx) error {
		b, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}
		from = b.Status

		if personID != nil {
			if _, err := tx.GetPerson(ctx, *personID); err != nil {
				return err
			}
		}

		to, err := Next(b.Status, op)
		if errors.Is(err, ErrNoop) {
			book = b
			return nil
		}
		if err != nil {
			return fmt.Errorf("book %s: %w", b.ID, err)
		}

		if op == domain.OpViewCover && !b.HasCover() {
			return fmt.Errorf("%w: book %s has no cover image", domain.ErrNotFound, b.ID)
		}

		tr := store.Transition{Operation: op, To: to, Person: personID, Actor: actor}
		if to == domain.StatusAssigned {
			tr.Owner = personID
		}
		if err := tx.ApplyTransition(ctx, b, tr); err != nil {
			return err
		}
		book, changed = b, true
		return nil
	})

	outcome := outcomeOf(err, changed)
	d.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("outcome", outcome),
	))

	event := d.log.Info()
	if err != nil {
		event = d.log.Warn().Err(err)
		if outcome == "error" {
			event = d.log.Error().Err(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	event.
		Str("operation", string(op)).
		Stringer("book_id", bookID).
		Str("actor", actor).
		Str("from", string(from)).
		Str("outcome", outcome).
		Msg("custody transition")

	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("custody.to", string(book.Status)))
	return book, nil
}

func outcomeOf(err error, changed bool) string {
	switch {
	case err == nil && changed:
		return "applied"
	case err == nil:
		return "noop"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
