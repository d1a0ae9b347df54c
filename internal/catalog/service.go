// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"

	"libraryhub/internal/domain"
)

// Service defines the book directory.
type Service interface {
	CreateBook(ctx context.Context, in BookInput, actor string) (*domain.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in BookInput, actor string) (*domain.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListActive(ctx context.Context) ([]domain.Book, error)
	ListDeleted(ctx context.Context) ([]domain.Book, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*domain.Book, error)
	CoverImageURLs(ctx context.Context) ([]string, error)
}
