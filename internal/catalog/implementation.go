// internal/catalog/implementation.go
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"libraryhub/internal/domain"
	"libraryhub/internal/store"
)

// CoverSource downloads cover images by URL.
type CoverSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Catalog is the book directory backed by the entity store.
type Catalog struct {
	store  *store.Store
	covers CoverSource
	log    zerolog.Logger
	now    func() time.Time
}

var _ Service = (*Catalog)(nil)

func NewCatalog(s *store.Store, covers CoverSource, log zerolog.Logger) *Catalog {
	return &Catalog{
		store:  s,
		covers: covers,
		log:    log.With().Str("component", "catalog").Logger(),
		now:    time.Now,
	}
}

// CreateBook adds a FREE book to the catalog, downloading its cover first
// when a URL is given.
func (c *Catalog) CreateBook(ctx context.Context, in BookInput, actor string) (*domain.Book, error) {
	b := &domain.Book{
		Title:            in.Title,
		Author:           in.Author,
		YearOfProduction: in.YearOfProduction,
		Annotation:       in.Annotation,
		CreatedPerson:    actor,
		UpdatedPerson:    actor,
	}
	if err := c.attachCover(ctx, b, in.CoverImageURL); err != nil {
		return nil, err
	}

	if err := c.store.SaveBook(ctx, b); err != nil {
		return nil, err
	}

	c.log.Info().Stringer("book_id", b.ID).Bool("cover", b.HasCover()).Str("actor", actor).Msg("book created")
	return b, nil
}

// UpdateBook replaces the descriptive fields of a book. Status and owner
// are left untouched; the cover is replaced only when a new URL is given.
func (c *Catalog) UpdateBook(ctx context.Context, id uuid.UUID, in BookInput, actor string) (*domain.Book, error) {
	b, err := c.store.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	b.Title = in.Title
	b.Author = in.Author
	b.YearOfProduction = in.YearOfProduction
	b.Annotation = in.Annotation
	b.UpdatedPerson = actor
	if err := c.attachCover(ctx, b, in.CoverImageURL); err != nil {
		return nil, err
	}

	if err := c.store.SaveBook(ctx, b); err != nil {
		return nil, err
	}

	c.log.Info().Stringer("book_id", b.ID).Str("actor", actor).Msg("book updated")
	return b, nil
}

func (c *Catalog) attachCover(ctx context.Context, b *domain.Book, url string) error {
	if url == "" {
		return nil
	}
	img, err := c.covers.Fetch(ctx, url)
	if err != nil {
		return err
	}
	b.CoverImage = img
	return nil
}

func (c *Catalog) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	return c.store.GetBook(ctx, id)
}

func (c *Catalog) ListActive(ctx context.Context) ([]domain.Book, error) {
	return c.store.ListBooks(ctx, store.Active)
}

func (c *Catalog) ListDeleted(ctx context.Context) ([]domain.Book, error) {
	return c.store.ListBooks(ctx, store.Removed)
}

// SoftDelete marks a book removed without touching its custody state.
// Deleting twice is a no-op.
func (c *Catalog) SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*domain.Book, error) {
	b, err := c.store.SoftDeleteBook(ctx, id, actor, c.now())
	if err != nil {
		return nil, err
	}
	c.log.Info().Stringer("book_id", id).Str("actor", actor).Msg("book removed")
	return b, nil
}

// CoverImageURLs returns the cover URL of every book that has a cover.
func (c *Catalog) CoverImageURLs(ctx context.Context) ([]string, error) {
	ids, err := c.store.ListCoveredBookIDs(ctx)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		urls = append(urls, domain.CoverURL(id))
	}
	return urls, nil
}
