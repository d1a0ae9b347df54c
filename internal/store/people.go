// internal/store/people.go
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

const personColumns = `id, full_name, age, email, phone_number, password, role,
	created_at, removed_at, created_person, removed_person`

// SavePerson inserts p when its ID is unset and updates the profile fields
// otherwise. Removal markers are only written by SoftDeletePerson.
func (s *Store) SavePerson(ctx context.Context, p *domain.Person) error {
	ctx, span := s.tracer.Start(ctx, "store.save_person")
	defer span.End()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now()
		}
		_, err := s.db.NamedExecContext(ctx, `
			INSERT INTO person (id, full_name, age, email, phone_number, password, role,
				created_at, removed_at, created_person, removed_person)
			VALUES (:id, :full_name, :age, :email, :phone_number, :password, :role,
				:created_at, :removed_at, :created_person, :removed_person)
		`, p)
		if err != nil {
			p.ID = uuid.Nil
			return fail(span, translate(err, "person with this name"))
		}
		span.SetAttributes(attribute.String("person.id", p.ID.String()))
		return nil
	}

	span.SetAttributes(attribute.String("person.id", p.ID.String()))
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE person
		SET full_name = :full_name, age = :age, email = :email,
			phone_number = :phone_number, password = :password, role = :role
		WHERE id = :id
	`, p)
	if err != nil {
		return fail(span, translate(err, "person with this name"))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fail(span, fmt.Errorf("%w: person %s", domain.ErrNotFound, p.ID))
	}
	return nil
}

// GetPerson returns a person by id, including soft-deleted ones.
func (s *Store) GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_person",
		trace.WithAttributes(attribute.String("person.id", id.String())))
	defer span.End()

	var p domain.Person
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+personColumns+` FROM person WHERE id = ?`), id)
	if err != nil {
		return nil, fail(span, translate(err, "person "+id.String()))
	}
	return &p, nil
}

// FindPersonByName looks a person up by the unique full name used as login.
func (s *Store) FindPersonByName(ctx context.Context, name string) (*domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, "store.find_person_by_name")
	defer span.End()

	var p domain.Person
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+personColumns+` FROM person WHERE full_name = ?`), name)
	if err != nil {
		return nil, fail(span, translate(err, "person "+name))
	}
	return &p, nil
}

func (s *Store) ListPeople(ctx context.Context, f Filter) ([]domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, "store.list_people")
	defer span.End()

	people := []domain.Person{}
	err := s.db.SelectContext(ctx, &people, `SELECT `+personColumns+` FROM person`+f.where()+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list people: %w", err))
	}
	span.SetAttributes(attribute.Int("people.count", len(people)))
	return people, nil
}

// SoftDeletePerson marks a person removed. Removing an already removed
// person leaves the first markers untouched.
func (s *Store) SoftDeletePerson(ctx context.Context, id uuid.UUID, by string, at time.Time) (*domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, "store.soft_delete_person",
		trace.WithAttributes(attribute.String("person.id", id.String())))
	defer span.End()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE person SET removed_at = ?, removed_person = ?
		WHERE id = ? AND removed_at IS NULL
	`), at.UTC().Truncate(time.Microsecond), by, id)
	if err != nil {
		return nil, fail(span, fmt.Errorf("soft delete person: %w", err))
	}
	return s.GetPerson(ctx, id)
}
