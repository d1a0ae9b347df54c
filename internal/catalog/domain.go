// internal/catalog/domain.go
package catalog

// BookInput is the writable part of a book. Custody fields are never
// accepted here; they change only through the circulation desk.
type BookInput struct {
	Title            string `json:"title" validate:"required,min=2,max=255"`
	Author           string `json:"author" validate:"required,min=2,max=50"`
	YearOfProduction int    `json:"year_of_production" validate:"gte=1000,lte=9999"`
	Annotation       string `json:"annotation" validate:"required"`
	// CoverImageURL is downloaded once and stored with the book.
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,url"`
}
