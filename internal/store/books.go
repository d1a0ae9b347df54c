// internal/store/books.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libraryhub/internal/domain"
)

const bookColumns = `book_id, title, author, year_of_production, annotation, cover_image,
	status, person_id, version, created_at, updated_at, removed_at,
	created_person, updated_person, removed_person`

// SaveBook inserts b when its ID is unset and updates the descriptive fields
// otherwise. New books always start FREE without an owner; custody columns
// are only written through Tx.ApplyTransition.
func (s *Store) SaveBook(ctx context.Context, b *domain.Book) error {
	ctx, span := s.tracer.Start(ctx, "store.save_book")
	defer span.End()

	now := s.now()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		b.Status = domain.StatusFree
		b.OwnerID = nil
		b.Version = 0
		b.CreatedAt = now
		b.UpdatedAt = now
		if b.UpdatedPerson == "" {
			b.UpdatedPerson = b.CreatedPerson
		}
		_, err := s.db.NamedExecContext(ctx, `
			INSERT INTO book (book_id, title, author, year_of_production, annotation, cover_image,
				status, person_id, version, created_at, updated_at, removed_at,
				created_person, updated_person, removed_person)
			VALUES (:book_id, :title, :author, :year_of_production, :annotation, :cover_image,
				:status, :person_id, :version, :created_at, :updated_at, :removed_at,
				:created_person, :updated_person, :removed_person)
		`, b)
		if err != nil {
			b.ID = uuid.Nil
			return fail(span, translate(err, "book"))
		}
		span.SetAttributes(attribute.String("book.id", b.ID.String()))
		return nil
	}

	span.SetAttributes(attribute.String("book.id", b.ID.String()))
	b.UpdatedAt = now
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE book
		SET title = :title, author = :author, year_of_production = :year_of_production,
			annotation = :annotation, cover_image = :cover_image,
			updated_at = :updated_at, updated_person = :updated_person
		WHERE book_id = :book_id
	`, b)
	if err != nil {
		return fail(span, fmt.Errorf("update book: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fail(span, fmt.Errorf("%w: book %s", domain.ErrNotFound, b.ID))
	}
	return nil
}

// GetBook returns a book by id, including soft-deleted ones.
func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_book",
		trace.WithAttributes(attribute.String("book.id", id.String())))
	defer span.End()

	var b domain.Book
	err := s.db.GetContext(ctx, &b, s.db.Rebind(`SELECT `+bookColumns+` FROM book WHERE book_id = ?`), id)
	if err != nil {
		return nil, fail(span, translate(err, "book "+id.String()))
	}
	return &b, nil
}

func (s *Store) ListBooks(ctx context.Context, f Filter) ([]domain.Book, error) {
	ctx, span := s.tracer.Start(ctx, "store.list_books")
	defer span.End()

	books := []domain.Book{}
	err := s.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM book`+f.where()+` ORDER BY created_at, book_id`)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list books: %w", err))
	}
	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

// BooksByOwner returns the books currently ASSIGNED to the person.
func (s *Store) BooksByOwner(ctx context.Context, personID uuid.UUID) ([]domain.Book, error) {
	ctx, span := s.tracer.Start(ctx, "store.books_by_owner",
		trace.WithAttributes(attribute.String("person.id", personID.String())))
	defer span.End()

	books := []domain.Book{}
	err := s.db.SelectContext(ctx, &books,
		s.db.Rebind(`SELECT `+bookColumns+` FROM book WHERE person_id = ? ORDER BY created_at, book_id`), personID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("books by owner: %w", err))
	}
	return books, nil
}

// ListCoveredBookIDs returns the ids of books that carry a cover image.
func (s *Store) ListCoveredBookIDs(ctx context.Context) ([]uuid.UUID, error) {
	ctx, span := s.tracer.Start(ctx, "store.list_covered_books")
	defer span.End()

	ids := []uuid.UUID{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT book_id FROM book
		WHERE cover_image IS NOT NULL AND length(cover_image) > 0
		ORDER BY created_at, book_id
	`)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list covered books: %w", err))
	}
	return ids, nil
}

// SoftDeleteBook marks a book removed. Custody state is left as is and a
// second call keeps the first markers.
func (s *Store) SoftDeleteBook(ctx context.Context, id uuid.UUID, by string, at time.Time) (*domain.Book, error) {
	ctx, span := s.tracer.Start(ctx, "store.soft_delete_book",
		trace.WithAttributes(attribute.String("book.id", id.String())))
	defer span.End()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE book SET removed_at = ?, removed_person = ?
		WHERE book_id = ? AND removed_at IS NULL
	`), at.UTC().Truncate(time.Microsecond), by, id)
	if err != nil {
		return nil, fail(span, fmt.Errorf("soft delete book: %w", err))
	}
	return s.GetBook(ctx, id)
}
