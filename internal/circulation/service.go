// internal/circulation/service.go
package circulation

import (
	"context"

	"github.com/google/uuid"

	"libraryhub/internal/domain"
)

// Service defines the custody operations on a single book.
type Service interface {
	Assign(ctx context.Context, bookID, personID uuid.UUID, actor string) (*domain.Book, error)
	Free(ctx context.Context, bookID uuid.UUID, actor string) (*domain.Book, error)
	ViewCover(ctx context.Context, bookID, personID uuid.UUID, actor string) (*domain.Book, error)
	ViewContent(ctx context.Context, bookID, personID uuid.UUID, actor string) (*domain.Book, error)
	ReleaseAfterViewing(ctx context.Context, bookID uuid.UUID, actor string) (*domain.Book, error)
	History(ctx context.Context, bookID uuid.UUID) ([]domain.CustodyEvent, error)
}
