// internal/membership/service.go
package membership

import (
	"context"

	"github.com/google/uuid"

	"libraryhub/internal/domain"
)

// Service defines the people directory.
type Service interface {
	CreatePerson(ctx context.Context, in domain.PersonInput, actor string) (*domain.Person, error)
	UpdatePerson(ctx context.Context, id uuid.UUID, in domain.PersonInput, actor string) (*domain.Person, error)
	GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error)
	FindByName(ctx context.Context, name string) (*domain.Person, error)
	ListActive(ctx context.Context) ([]domain.Person, error)
	ListDeleted(ctx context.Context) ([]domain.Person, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*domain.Person, error)
	BooksOwnedBy(ctx context.Context, personID uuid.UUID) ([]domain.Book, error)
	VerifyCredentials(ctx context.Context, name, password string) (*domain.Person, error)
}
