// internal/circulation/domain.go
package circulation

import (
	"errors"
	"fmt"

	"libraryhub/internal/domain"
)

// ErrNoop reports a transition that leaves the book as it is. Desk turns it
// into success without writing anything.
var ErrNoop = errors.New("no custody change")

// Next returns the status a book moves to when op is applied in status from.
// Illegal transitions wrap domain.ErrConflict.
func Next(from domain.Status, op domain.Operation) (domain.Status, error) {
	switch op {
	case domain.OpAssign:
		return fromFree(from, op, domain.StatusAssigned)
	case domain.OpViewCover:
		return fromFree(from, op, domain.StatusViewingCover)
	case domain.OpViewContent:
		return fromFree(from, op, domain.StatusViewingContent)
	case domain.OpFree:
		if from != domain.StatusAssigned {
			return from, fmt.Errorf("%w: book is %s, only an ASSIGNED book can be freed", domain.ErrConflict, from)
		}
		return domain.StatusFree, nil
	case domain.OpRelease:
		if !from.Viewing() {
			return from, ErrNoop
		}
		return domain.StatusFree, nil
	default:
		return from, fmt.Errorf("unknown custody operation %q", op)
	}
}

func fromFree(from domain.Status, op domain.Operation, to domain.Status) (domain.Status, error) {
	if from != domain.StatusFree {
		return from, fmt.Errorf("%w: book is %s, %s requires a FREE book", domain.ErrConflict, from, op)
	}
	return to, nil
}
