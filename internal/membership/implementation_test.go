package membership

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"libraryhub/internal/domain"
	"libraryhub/internal/store"
	"libraryhub/internal/store/storetest"
	"libraryhub/internal/web"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	s := storetest.SQLite(t)
	return NewRegistry(s, bcrypt.MinCost, zerolog.Nop()), s
}

func input(name string) domain.PersonInput {
	return domain.PersonInput{
		Name:        name,
		Age:         25,
		Email:       "member@example.com",
		PhoneNumber: "+79161234567",
		Password:    "secret",
	}
}

func TestCreatePerson_DefaultsToUser(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	p, err := reg.CreatePerson(ctx, input("Petrov Petr Petrovich"), "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, p.Role)
	assert.Equal(t, "admin", p.CreatedPerson)
	assert.NotEqual(t, "secret", p.PasswordHash)
	assert.True(t, CheckPassword(p.PasswordHash, "secret"))

	in := input("Adminov Admin Adminovich")
	in.Role = domain.RoleAdmin
	admin, err := reg.CreatePerson(ctx, in, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestCreatePerson_Failures(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	in := input("Nopass Nopass Nopass")
	in.Password = ""
	_, err := reg.CreatePerson(ctx, in, "admin")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = reg.CreatePerson(ctx, input("Twin Twin Twin"), "admin")
	require.NoError(t, err)
	_, err = reg.CreatePerson(ctx, input("Twin Twin Twin"), "admin")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdatePerson(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	in := input("Sokolov Dmitry Ivanovich")
	in.Role = domain.RoleAdmin
	p, err := reg.CreatePerson(ctx, in, "admin")
	require.NoError(t, err)
	oldHash := p.PasswordHash

	upd := input("Sokolov Dmitry Ivanovich")
	upd.Age = 26
	upd.Password = ""
	got, err := reg.UpdatePerson(ctx, p.ID, upd, "editor")
	require.NoError(t, err)
	assert.Equal(t, 26, got.Age)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, oldHash, got.PasswordHash)

	// An explicit empty role in the body leaves the role alone.
	body := `{"name":"Sokolov Dmitry Ivanovich","age":27,"email":"member@example.com","phone_number":"+79161234567","role":""}`
	var decoded domain.PersonInput
	require.NoError(t, web.Decode(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)), &decoded))
	assert.Equal(t, domain.Role(""), decoded.Role)
	got, err = reg.UpdatePerson(ctx, p.ID, decoded, "editor")
	require.NoError(t, err)
	assert.Equal(t, 27, got.Age)
	assert.Equal(t, domain.RoleAdmin, got.Role)

	upd.Password = "changed"
	upd.Role = domain.RoleUser
	got, err = reg.UpdatePerson(ctx, p.ID, upd, "editor")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, got.Role)
	assert.True(t, CheckPassword(got.PasswordHash, "changed"))

	_, err = reg.UpdatePerson(ctx, uuid.New(), upd, "editor")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSoftDeleteAndListings(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return fixed }

	stay, err := reg.CreatePerson(ctx, input("Stay Stay Stay"), "admin")
	require.NoError(t, err)
	leave, err := reg.CreatePerson(ctx, input("Leave Leave Leave"), "admin")
	require.NoError(t, err)

	removed, err := reg.SoftDelete(ctx, leave.ID, "admin")
	require.NoError(t, err)
	require.NotNil(t, removed.RemovedAt)
	assert.True(t, removed.RemovedAt.Equal(fixed))

	reg.now = func() time.Time { return fixed.Add(time.Hour) }
	again, err := reg.SoftDelete(ctx, leave.ID, "other")
	require.NoError(t, err)
	assert.True(t, again.RemovedAt.Equal(fixed))
	assert.Equal(t, "admin", *again.RemovedPerson)

	active, err := reg.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, stay.ID, active[0].ID)

	deleted, err := reg.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, leave.ID, deleted[0].ID)

	// Removed people remain addressable.
	got, err := reg.GetPerson(ctx, leave.ID)
	require.NoError(t, err)
	assert.True(t, got.Removed())
}

func TestBooksOwnedBy(t *testing.T) {
	ctx := context.Background()
	reg, s := newTestRegistry(t)

	p, err := reg.CreatePerson(ctx, input("Owner Owner Owner"), "admin")
	require.NoError(t, err)

	b := &domain.Book{Title: "Owned", Author: "Author", YearOfProduction: 2000, Annotation: "x", CreatedPerson: "admin"}
	require.NoError(t, s.SaveBook(ctx, b))
	require.NoError(t, s.InTx(ctx, func(tx *store.Tx) error {
		locked, err := tx.LockBook(ctx, b.ID)
		if err != nil {
			return err
		}
		return tx.ApplyTransition(ctx, locked, store.Transition{
			Operation: domain.OpAssign, To: domain.StatusAssigned, Owner: &p.ID, Person: &p.ID, Actor: "admin",
		})
	}))

	books, err := reg.BooksOwnedBy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, b.ID, books[0].ID)

	_, err = reg.BooksOwnedBy(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	p, err := reg.CreatePerson(ctx, input("Login Login Login"), "admin")
	require.NoError(t, err)

	got, err := reg.VerifyCredentials(ctx, "Login Login Login", "secret")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = reg.VerifyCredentials(ctx, "Login Login Login", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuthFailure)

	_, err = reg.VerifyCredentials(ctx, "Unknown Unknown Unknown", "secret")
	assert.ErrorIs(t, err, domain.ErrAuthFailure)

	_, err = reg.SoftDelete(ctx, p.ID, "admin")
	require.NoError(t, err)
	_, err = reg.VerifyCredentials(ctx, "Login Login Login", "secret")
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
