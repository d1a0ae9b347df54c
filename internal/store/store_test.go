package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/domain"
	"libraryhub/internal/store"
	"libraryhub/internal/store/storetest"
)

func newPerson(name string) *domain.Person {
	return &domain.Person{
		Name:          name,
		Age:           30,
		Email:         "reader@example.com",
		PhoneNumber:   "+79990001122",
		PasswordHash:  "hash",
		Role:          domain.RoleUser,
		CreatedPerson: "admin",
	}
}

func newBook(title string) *domain.Book {
	return &domain.Book{
		Title:            title,
		Author:           "Leo Tolstoy",
		YearOfProduction: 1869,
		Annotation:       "A novel.",
		CreatedPerson:    "admin",
	}
}

func TestSavePerson_InsertAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	p := newPerson("Ivan Ivanovich Ivanov")
	require.NoError(t, s.SavePerson(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	p.Age = 31
	p.Role = domain.RoleAdmin
	require.NoError(t, s.SavePerson(ctx, p))

	got, err := s.GetPerson(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 31, got.Age)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.False(t, got.Removed())
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)

	byName, err := s.FindPersonByName(ctx, "Ivan Ivanovich Ivanov")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)
}

func TestSavePerson_DuplicateNameConflicts(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	require.NoError(t, s.SavePerson(ctx, newPerson("Anna Petrovna Smirnova")))

	dup := newPerson("Anna Petrovna Smirnova")
	err := s.SavePerson(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, uuid.Nil, dup.ID)
}

func TestGetMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	_, err := s.GetPerson(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.GetBook(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.FindPersonByName(ctx, "Nobody Here At")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.History(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.SavePerson(ctx, &domain.Person{ID: uuid.New(), Name: "Ghost Ghost Ghost", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveBook_InsertStartsFree(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	owner := uuid.New()
	b := newBook("War and Peace")
	b.Status = domain.StatusAssigned
	b.OwnerID = &owner
	b.CoverImage = []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, s.SaveBook(ctx, b))

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFree, got.Status)
	assert.Nil(t, got.OwnerID)
	assert.Equal(t, 0, got.Version)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, got.CoverImage)
	assert.Equal(t, "admin", got.UpdatedPerson)
}

func TestSaveBook_UpdateKeepsCustody(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	p := newPerson("Boris Olegovich Petrov")
	require.NoError(t, s.SavePerson(ctx, p))
	b := newBook("Anna Karenina")
	require.NoError(t, s.SaveBook(ctx, b))

	err := s.InTx(ctx, func(tx *store.Tx) error {
		locked, err := tx.LockBook(ctx, b.ID)
		if err != nil {
			return err
		}
		return tx.ApplyTransition(ctx, locked, store.Transition{
			Operation: domain.OpAssign, To: domain.StatusAssigned, Owner: &p.ID, Person: &p.ID, Actor: "admin",
		})
	})
	require.NoError(t, err)

	// A stale copy still claims FREE; saving it must not touch custody.
	b.Title = "Anna Karenina (2nd ed.)"
	b.UpdatedPerson = "editor"
	require.NoError(t, s.SaveBook(ctx, b))

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Karenina (2nd ed.)", got.Title)
	assert.Equal(t, "editor", got.UpdatedPerson)
	assert.Equal(t, domain.StatusAssigned, got.Status)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, p.ID, *got.OwnerID)
	assert.Equal(t, 1, got.Version)
}

func TestSoftDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	p := newPerson("Olga Ivanovna Sidorova")
	require.NoError(t, s.SavePerson(ctx, p))

	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	removed, err := s.SoftDeletePerson(ctx, p.ID, "admin", first)
	require.NoError(t, err)
	require.True(t, removed.Removed())
	assert.True(t, removed.RemovedAt.Equal(first))
	assert.Equal(t, "admin", *removed.RemovedPerson)

	again, err := s.SoftDeletePerson(ctx, p.ID, "someone-else", first.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, again.RemovedAt.Equal(first))
	assert.Equal(t, "admin", *again.RemovedPerson)

	_, err = s.SoftDeletePerson(ctx, uuid.New(), "admin", first)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	b := newBook("Resurrection")
	require.NoError(t, s.SaveBook(ctx, b))
	rb, err := s.SoftDeleteBook(ctx, b.ID, "admin", first)
	require.NoError(t, err)
	assert.True(t, rb.Removed())
	assert.Equal(t, domain.StatusFree, rb.Status)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	keep := newPerson("Keep Keep Keep")
	gone := newPerson("Gone Gone Gone")
	require.NoError(t, s.SavePerson(ctx, keep))
	require.NoError(t, s.SavePerson(ctx, gone))
	_, err := s.SoftDeletePerson(ctx, gone.ID, "admin", time.Now())
	require.NoError(t, err)

	active, err := s.ListPeople(ctx, store.Active)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	removed, err := s.ListPeople(ctx, store.Removed)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, gone.ID, removed[0].ID)

	all, err := s.ListPeople(ctx, store.All)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	covered := newBook("Covered")
	covered.CoverImage = []byte("img")
	plain := newBook("Plain")
	require.NoError(t, s.SaveBook(ctx, covered))
	require.NoError(t, s.SaveBook(ctx, plain))
	_, err = s.SoftDeleteBook(ctx, plain.ID, "admin", time.Now())
	require.NoError(t, err)

	books, err := s.ListBooks(ctx, store.Active)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, covered.ID, books[0].ID)

	books, err = s.ListBooks(ctx, store.Removed)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, plain.ID, books[0].ID)

	ids, err := s.ListCoveredBookIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{covered.ID}, ids)
}

func TestApplyTransition_RecordsHistoryAndOwner(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	p := newPerson("Pavel Sergeevich Orlov")
	require.NoError(t, s.SavePerson(ctx, p))
	b := newBook("Childhood")
	require.NoError(t, s.SaveBook(ctx, b))

	step := func(tr store.Transition) error {
		return s.InTx(ctx, func(tx *store.Tx) error {
			locked, err := tx.LockBook(ctx, b.ID)
			if err != nil {
				return err
			}
			return tx.ApplyTransition(ctx, locked, tr)
		})
	}

	require.NoError(t, step(store.Transition{Operation: domain.OpAssign, To: domain.StatusAssigned, Owner: &p.ID, Person: &p.ID, Actor: "admin"}))

	owned, err := s.BooksByOwner(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, b.ID, owned[0].ID)

	require.NoError(t, step(store.Transition{Operation: domain.OpFree, To: domain.StatusFree, Actor: "admin"}))

	owned, err = s.BooksByOwner(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	history, err := s.History(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.OpAssign, history[0].Operation)
	assert.Equal(t, domain.StatusFree, history[0].FromStatus)
	assert.Equal(t, domain.StatusAssigned, history[0].ToStatus)
	assert.Equal(t, 1, history[0].Version)
	require.NotNil(t, history[0].PersonID)
	assert.Equal(t, p.ID, *history[0].PersonID)
	assert.Equal(t, domain.OpFree, history[1].Operation)
	assert.Nil(t, history[1].PersonID)
	assert.Equal(t, 2, history[1].Version)
}

func TestApplyTransition_RejectsIllegalPairing(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	b := newBook("Hadji Murat")
	require.NoError(t, s.SaveBook(ctx, b))

	err := s.InTx(ctx, func(tx *store.Tx) error {
		locked, err := tx.LockBook(ctx, b.ID)
		if err != nil {
			return err
		}
		return tx.ApplyTransition(ctx, locked, store.Transition{Operation: domain.OpAssign, To: domain.StatusAssigned})
	})
	require.Error(t, err)

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFree, got.Status)
	assert.Equal(t, 0, got.Version)
}

func TestApplyTransition_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	p := newPerson("Stale Reader Person")
	require.NoError(t, s.SavePerson(ctx, p))
	b := newBook("Stale")
	require.NoError(t, s.SaveBook(ctx, b))

	stale := *b
	require.NoError(t, s.InTx(ctx, func(tx *store.Tx) error {
		locked, err := tx.LockBook(ctx, b.ID)
		if err != nil {
			return err
		}
		return tx.ApplyTransition(ctx, locked, store.Transition{Operation: domain.OpViewCover, To: domain.StatusViewingCover, Person: &p.ID})
	}))

	err := s.InTx(ctx, func(tx *store.Tx) error {
		return tx.ApplyTransition(ctx, &stale, store.Transition{Operation: domain.OpAssign, To: domain.StatusAssigned, Owner: &p.ID, Person: &p.ID})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	history, err := s.History(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// TestConcurrentTransitions_SingleWinner races guarded writes from the same
// starting version; exactly one may commit.
func TestConcurrentTransitions_SingleWinner(t *testing.T) {
	for name, open := range map[string]func(testing.TB) *store.Store{
		"sqlite":   storetest.SQLite,
		"postgres": storetest.Postgres,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			p := newPerson("Racer " + uuid.NewString()[:8] + " Person")
			require.NoError(t, s.SavePerson(ctx, p))
			b := newBook("Contended")
			require.NoError(t, s.SaveBook(ctx, b))

			const workers = 20
			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					snapshot := *b
					err := s.InTx(ctx, func(tx *store.Tx) error {
						return tx.ApplyTransition(ctx, &snapshot, store.Transition{
							Operation: domain.OpAssign, To: domain.StatusAssigned, Owner: &p.ID, Person: &p.ID,
						})
					})
					if err == nil {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load(), "exactly one guarded write should commit")

			got, err := s.GetBook(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusAssigned, got.Status)
			assert.Equal(t, 1, got.Version)
		})
	}
}
