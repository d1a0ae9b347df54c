// internal/chaos/experiments.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"libraryhub/internal/catalog"
	"libraryhub/internal/circulation"
	"libraryhub/internal/domain"
)

// Library is the part of the library API the experiments drive. An
// administrator's *clients.LibraryClient satisfies it.
type Library interface {
	CreatePerson(ctx context.Context, in domain.PersonInput) (*domain.Person, error)
	CreateBook(ctx context.Context, in catalog.BookInput) (*domain.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	Assign(ctx context.Context, bookID, personID uuid.UUID) (*domain.Book, error)
	Free(ctx context.Context, bookID uuid.UUID) (*domain.Book, error)
	ViewContent(ctx context.Context, bookID, personID uuid.UUID) (*circulation.Content, error)
	ReleaseAfterViewing(ctx context.Context, bookID uuid.UUID) (*domain.Book, error)
	History(ctx context.Context, bookID uuid.UUID) ([]domain.CustodyEvent, error)
}

// RegisterExperiments registers the custody race experiments.
func (e *Engine) RegisterExperiments(lib Library, workers int, duration time.Duration) {
	e.RegisterExperiment(ConcurrentAssignExperiment(lib, workers, duration))
	e.RegisterExperiment(MixedCustodyRaceExperiment(lib, workers, duration))
}

// contest tracks one contested book across an experiment.
type contest struct {
	lib  Library
	name string

	mu        sync.Mutex
	book      uuid.UUID
	people    []uuid.UUID
	wins      int
	conflicts int
	failures  int
}

func newContest(lib Library, name string) *contest {
	return &contest{lib: lib, name: name}
}

// setup creates the contested book and one person per worker.
func (c *contest) setup(ctx context.Context, workers int) error {
	book, err := c.lib.CreateBook(ctx, catalog.BookInput{
		Title:            "Contested " + c.name,
		Author:           "Chaos Engine",
		YearOfProduction: time.Now().Year(),
		Annotation:       "Created by the " + c.name + " experiment.",
	})
	if err != nil {
		return fmt.Errorf("create contested book: %w", err)
	}

	people := make([]uuid.UUID, 0, workers)
	for i := 0; i < workers; i++ {
		p, err := c.lib.CreatePerson(ctx, domain.PersonInput{
			Name:        "Chaos " + letters(uuid.New(), 10) + " Racer",
			Age:         30,
			Email:       "chaos@example.com",
			PhoneNumber: "+79990000000",
			Password:    uuid.NewString(),
		})
		if err != nil {
			return fmt.Errorf("create racer: %w", err)
		}
		people = append(people, p.ID)
	}

	c.mu.Lock()
	c.book, c.people = book.ID, people
	c.mu.Unlock()
	return nil
}

// race releases every worker at once; worker i runs op for person i.
func (c *contest) race(ctx context.Context, op func(ctx context.Context, i int, book, person uuid.UUID) error) {
	c.mu.Lock()
	book, people := c.book, c.people
	c.mu.Unlock()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, person := range people {
		wg.Add(1)
		go func(i int, person uuid.UUID) {
			defer wg.Done()
			<-start
			err := op(ctx, i, book, person)

			c.mu.Lock()
			defer c.mu.Unlock()
			switch {
			case err == nil:
				c.wins++
			case errors.Is(err, domain.ErrConflict):
				c.conflicts++
			default:
				c.failures++
			}
		}(i, person)
	}
	close(start)
	wg.Wait()
}

func (c *contest) winners(context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.wins), nil
}

func (c *contest) failed(context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.failures), nil
}

// inconsistencies counts broken custody facts of the contested book: a
// status/owner mismatch and a history that disagrees with the version.
func (c *contest) inconsistencies(ctx context.Context) (float64, error) {
	c.mu.Lock()
	id := c.book
	c.mu.Unlock()
	if id == uuid.Nil {
		return 0, nil
	}

	b, err := c.lib.GetBook(ctx, id)
	if err != nil {
		return 0, err
	}
	history, err := c.lib.History(ctx, id)
	if err != nil {
		return 0, err
	}

	bad := 0
	if (b.Status == domain.StatusAssigned) != (b.OwnerID != nil) {
		bad++
	}
	if len(history) != b.Version {
		bad++
	}
	return float64(bad), nil
}

// restore returns the contested book to FREE.
func (c *contest) restore(ctx context.Context) error {
	c.mu.Lock()
	id := c.book
	c.mu.Unlock()
	if id == uuid.Nil {
		return nil
	}

	b, err := c.lib.GetBook(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case b.Status == domain.StatusAssigned:
		_, err = c.lib.Free(ctx, id)
	case b.Status.Viewing():
		_, err = c.lib.ReleaseAfterViewing(ctx, id)
	}
	return err
}

func (c *contest) metrics() []Metric {
	return []Metric{
		{Name: "custody_inconsistencies", Query: c.inconsistencies, Threshold: Threshold{Operator: "==", Value: 0}},
		{Name: "custody_winners", Query: c.winners, Threshold: Threshold{Operator: "<=", Value: 1}},
		{Name: "unexpected_failures", Query: c.failed, Threshold: Threshold{Operator: "==", Value: 0}},
	}
}

func (c *contest) assertions() []Assertion {
	return []Assertion{
		{Metric: "custody_winners", Condition: func(v float64) bool { return v == 1 }, Message: "exactly one request should take the book"},
		{Metric: "custody_inconsistencies", Condition: func(v float64) bool { return v == 0 }, Message: "the book's status, owner and history must agree"},
		{Metric: "unexpected_failures", Condition: func(v float64) bool { return v == 0 }, Message: "losing requests should fail with a conflict and nothing else"},
	}
}

// ConcurrentAssignExperiment races one assign per worker for the same FREE
// book.
func ConcurrentAssignExperiment(lib Library, workers int, duration time.Duration) Experiment {
	c := newContest(lib, "concurrent-assign-race")
	return Experiment{
		Name:        "concurrent-assign-race",
		Hypothesis:  "Exactly one of many simultaneous assignments of a FREE book succeeds; the rest conflict",
		SteadyState: c.metrics(),
		Method: []Action{
			{Type: "setup", Target: "catalog", Execute: func(ctx context.Context) error { return c.setup(ctx, workers) }},
			{Type: "concurrent-requests", Target: "circulation", Execute: func(ctx context.Context) error {
				c.race(ctx, func(ctx context.Context, _ int, book, person uuid.UUID) error {
					_, err := lib.Assign(ctx, book, person)
					return err
				})
				return nil
			}},
		},
		Rollback:   []Action{{Type: "free-book", Target: "circulation", Execute: c.restore}},
		Validation: c.assertions(),
		Duration:   duration,
	}
}

// MixedCustodyRaceExperiment races assignments against content previews
// for the same FREE book.
func MixedCustodyRaceExperiment(lib Library, workers int, duration time.Duration) Experiment {
	c := newContest(lib, "mixed-custody-race")
	return Experiment{
		Name:        "mixed-custody-race",
		Hypothesis:  "When assignments and previews collide on a FREE book, exactly one wins and custody stays consistent",
		SteadyState: c.metrics(),
		Method: []Action{
			{Type: "setup", Target: "catalog", Execute: func(ctx context.Context) error { return c.setup(ctx, workers) }},
			{Type: "concurrent-requests", Target: "circulation", Execute: func(ctx context.Context) error {
				c.race(ctx, func(ctx context.Context, i int, book, person uuid.UUID) error {
					if i%2 == 0 {
						_, err := lib.Assign(ctx, book, person)
						return err
					}
					_, err := lib.ViewContent(ctx, book, person)
					return err
				})
				return nil
			}},
		},
		Rollback:   []Action{{Type: "release-book", Target: "circulation", Execute: c.restore}},
		Validation: c.assertions(),
		Duration:   duration,
	}
}

// letters spells id with n lowercase ASCII letters, for names that must be
// alphabetic.
func letters(id uuid.UUID, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a' + id[i%len(id)]%26
	}
	return string(out)
}
