// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"libraryhub/internal/domain"
	"libraryhub/internal/store"
)

// Registry is the people directory backed by the entity store.
type Registry struct {
	store *store.Store
	cost  int
	log   zerolog.Logger
	now   func() time.Time
}

var _ Service = (*Registry)(nil)

// NewRegistry creates a registry hashing passwords at the given bcrypt cost.
func NewRegistry(s *store.Store, bcryptCost int, log zerolog.Logger) *Registry {
	return &Registry{
		store: s,
		cost:  bcryptCost,
		log:   log.With().Str("component", "membership").Logger(),
		now:   time.Now,
	}
}

// CreatePerson registers a new person. A missing role defaults to USER.
func (r *Registry) CreatePerson(ctx context.Context, in domain.PersonInput, actor string) (*domain.Person, error) {
	if in.Password == "" {
		return nil, domain.FieldError("password", "must not be empty")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	hash, err := HashPassword(in.Password, r.cost)
	if err != nil {
		return nil, err
	}

	p := &domain.Person{
		Name:          in.Name,
		Age:           in.Age,
		Email:         in.Email,
		PhoneNumber:   in.PhoneNumber,
		PasswordHash:  hash,
		Role:          role,
		CreatedPerson: actor,
	}
	if err := r.store.SavePerson(ctx, p); err != nil {
		return nil, err
	}

	r.log.Info().Stringer("person_id", p.ID).Str("role", string(p.Role)).Str("actor", actor).Msg("person created")
	return p, nil
}

// UpdatePerson replaces the profile of a person. The password is re-hashed
// only when a new one is given and the role only changes when one is named.
func (r *Registry) UpdatePerson(ctx context.Context, id uuid.UUID, in domain.PersonInput, actor string) (*domain.Person, error) {
	p, err := r.store.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Age = in.Age
	p.Email = in.Email
	p.PhoneNumber = in.PhoneNumber
	if in.Role != "" {
		p.Role = in.Role
	}
	if in.Password != "" {
		if p.PasswordHash, err = HashPassword(in.Password, r.cost); err != nil {
			return nil, err
		}
	}

	if err := r.store.SavePerson(ctx, p); err != nil {
		return nil, err
	}

	r.log.Info().Stringer("person_id", p.ID).Str("actor", actor).Msg("person updated")
	return p, nil
}

func (r *Registry) GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	return r.store.GetPerson(ctx, id)
}

func (r *Registry) FindByName(ctx context.Context, name string) (*domain.Person, error) {
	return r.store.FindPersonByName(ctx, name)
}

func (r *Registry) ListActive(ctx context.Context) ([]domain.Person, error) {
	return r.store.ListPeople(ctx, store.Active)
}

func (r *Registry) ListDeleted(ctx context.Context) ([]domain.Person, error) {
	return r.store.ListPeople(ctx, store.Removed)
}

// SoftDelete marks a person removed. Deleting twice is a no-op.
func (r *Registry) SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*domain.Person, error) {
	p, err := r.store.SoftDeletePerson(ctx, id, actor, r.now())
	if err != nil {
		return nil, err
	}
	r.log.Info().Stringer("person_id", id).Str("actor", actor).Msg("person removed")
	return p, nil
}

// BooksOwnedBy lists the books currently assigned to a person.
func (r *Registry) BooksOwnedBy(ctx context.Context, personID uuid.UUID) ([]domain.Book, error) {
	if _, err := r.store.GetPerson(ctx, personID); err != nil {
		return nil, err
	}
	return r.store.BooksByOwner(ctx, personID)
}

// VerifyCredentials returns the person with the given name if the password
// matches. Unknown, removed and mismatched logins all fail the same way.
func (r *Registry) VerifyCredentials(ctx context.Context, name, password string) (*domain.Person, error) {
	p, err := r.store.FindPersonByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAuthFailure
	}
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if p.Removed() || !CheckPassword(p.PasswordHash, password) {
		return nil, domain.ErrAuthFailure
	}
	return p, nil
}
