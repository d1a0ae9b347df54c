// internal/domain/person.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the access level of a person. It is a closed set serialized by name.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole accepts a role name with or without the legacy "ROLE_" prefix.
// An empty string stays empty: callers decide what an unnamed role means.
func ParseRole(s string) (Role, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_")
	switch Role(name) {
	case "", RoleAdmin, RoleUser:
		return Role(name), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

func (r Role) String() string { return string(r) }

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Person is a registered library member. Rows are never removed; RemovedAt
// marks a soft delete.
type Person struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"full_name"`
	Age           int        `json:"age" db:"age"`
	Email         string     `json:"email" db:"email"`
	PhoneNumber   string     `json:"phone_number" db:"phone_number"`
	PasswordHash  string     `json:"-" db:"password"`
	Role          Role       `json:"role" db:"role"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	RemovedAt     *time.Time `json:"removed_at,omitempty" db:"removed_at"`
	CreatedPerson string     `json:"created_person" db:"created_person"`
	RemovedPerson *string    `json:"removed_person,omitempty" db:"removed_person"`
}

// Removed reports whether the person has been soft-deleted.
func (p *Person) Removed() bool {
	return p.RemovedAt != nil
}
