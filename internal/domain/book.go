// internal/domain/book.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the custody status of a book.
type Status string

const (
	StatusFree           Status = "FREE"
	StatusAssigned       Status = "ASSIGNED"
	StatusViewingCover   Status = "VIEWING_COVER"
	StatusViewingContent Status = "VIEWING_CONTENT"
)

// Valid reports whether s is one of the four custody statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusFree, StatusAssigned, StatusViewingCover, StatusViewingContent:
		return true
	}
	return false
}

// Viewing reports whether s is one of the preview states.
func (s Status) Viewing() bool {
	return s == StatusViewingCover || s == StatusViewingContent
}

// Book is a catalog entry together with its custody state.
type Book struct {
	ID               uuid.UUID  `json:"id" db:"book_id"`
	Title            string     `json:"title" db:"title"`
	Author           string     `json:"author" db:"author"`
	YearOfProduction int        `json:"year_of_production" db:"year_of_production"`
	Annotation       string     `json:"annotation" db:"annotation"`
	CoverImage       []byte     `json:"-" db:"cover_image"`
	Status           Status     `json:"status" db:"status"`
	OwnerID          *uuid.UUID `json:"owner_id,omitempty" db:"person_id"`
	Version          int        `json:"version" db:"version"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	RemovedAt        *time.Time `json:"removed_at,omitempty" db:"removed_at"`
	CreatedPerson    string     `json:"created_person" db:"created_person"`
	UpdatedPerson    string     `json:"updated_person" db:"updated_person"`
	RemovedPerson    *string    `json:"removed_person,omitempty" db:"removed_person"`
}

// Removed reports whether the book has been soft-deleted.
func (b *Book) Removed() bool {
	return b.RemovedAt != nil
}

// HasCover reports whether a cover image is stored for the book.
func (b *Book) HasCover() bool {
	return len(b.CoverImage) > 0
}

// CoverURL is the API path serving the book's cover image.
func CoverURL(id uuid.UUID) string {
	return fmt.Sprintf("/api/books/%s/coverImage", id)
}

// CheckCustody verifies the status/owner pairing: a book has an owner
// exactly when it is ASSIGNED.
func (b *Book) CheckCustody() error {
	if !b.Status.Valid() {
		return fmt.Errorf("unknown status %q", b.Status)
	}
	if (b.Status == StatusAssigned) != (b.OwnerID != nil) {
		return fmt.Errorf("status %s with owner %v", b.Status, b.OwnerID)
	}
	return nil
}
