// internal/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operation names a custody transition.
type Operation string

const (
	OpAssign      Operation = "ASSIGN"
	OpFree        Operation = "FREE"
	OpViewCover   Operation = "VIEW_COVER"
	OpViewContent Operation = "VIEW_CONTENT"
	OpRelease     Operation = "RELEASE"
)

// CustodyEvent is one entry of a book's custody history. PersonID is the
// borrower for assignments and the viewer for previews.
type CustodyEvent struct {
	ID         int64      `json:"id" db:"id"`
	BookID     uuid.UUID  `json:"book_id" db:"book_id"`
	PersonID   *uuid.UUID `json:"person_id,omitempty" db:"person_id"`
	Operation  Operation  `json:"operation" db:"operation"`
	FromStatus Status     `json:"from_status" db:"from_status"`
	ToStatus   Status     `json:"to_status" db:"to_status"`
	Actor      string     `json:"actor" db:"actor"`
	Version    int        `json:"version" db:"version"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
