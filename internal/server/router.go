// internal/server/router.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"libraryhub/internal/auth"
	"libraryhub/internal/catalog"
	"libraryhub/internal/circulation"
	"libraryhub/internal/config"
	"libraryhub/internal/domain"
	"libraryhub/internal/membership"
	"libraryhub/internal/store"
	"libraryhub/internal/web"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Health  Pinger
	Gate    *auth.Gate
	Auth    *auth.Handler
	People  *membership.Handler
	Books   *catalog.Handler
	Custody *circulation.Handler
}

// Build wires every service over s and returns the HTTP handler.
func Build(cfg *config.Config, s *store.Store, log zerolog.Logger) http.Handler {
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)
	registry := membership.NewRegistry(s, cfg.Auth.BcryptCost, log)
	books := catalog.NewCatalog(s, catalog.NewCoverFetcher(cfg.Covers.FetchTimeout, cfg.Covers.MaxBytes), log)
	desk := circulation.NewDesk(s, log)

	limiter := auth.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Auth.LoginRatePerMinute)), cfg.Auth.LoginRateBurst)

	return NewRouter(Handlers{
		Health:  s,
		Gate:    auth.NewGate(tokens),
		Auth:    auth.NewHandler(auth.NewService(registry, tokens, limiter, log)),
		People:  membership.NewHandler(registry),
		Books:   catalog.NewHandler(books),
		Custody: circulation.NewHandler(desk, registry),
	}, log)
}

// NewRouter mounts the public, authenticated and admin-only routes.
func NewRouter(h Handlers, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(requestIDField)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.Error(w, r, fmt.Errorf("%w: no route for %s %s", domain.ErrNotFound, r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, http.StatusMethodNotAllowed, web.ErrorResponse{
			Message:   "method not allowed",
			Timestamp: time.Now().UnixMilli(),
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := h.Health.Ping(r.Context()); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
			web.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.HandleLogin)
		r.Post("/registration", h.Auth.HandleRegistration)
		r.With(h.Gate.Authenticate).Get("/show", h.Auth.HandleShow)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.Gate.Authenticate)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Gate.Require(domain.RoleAdmin))

			r.Post("/createNewPerson", h.People.HandleCreate)
			r.Put("/{id}/updatePerson", h.People.HandleUpdate)
			r.Post("/deletePerson/{id}", h.People.HandleDelete)
			r.Get("/deleted/people", h.People.HandleListDeleted)
			r.Get("/personsBook/{id}", h.People.HandleBooksOwned)

			r.Post("/createNewBook", h.Books.HandleCreate)
			r.Put("/{id}/updateBook", h.Books.HandleUpdate)
			r.Post("/deleteBook/{id}", h.Books.HandleDelete)
			r.Get("/deleted/books", h.Books.HandleListDeleted)
			r.Get("/coverImages", h.Books.HandleCoverImages)

			r.Post("/{id}/assign", h.Custody.HandleAssign)
			r.Post("/{id}/free", h.Custody.HandleFree)
			r.Put("/{id}/releaseAfterViewing", h.Custody.HandleRelease)
			r.Get("/{id}/history", h.Custody.HandleHistory)
			r.Get("/{id}/coverImage", h.Custody.HandleCoverImage)
			r.Get("/{id}/content", h.Custody.HandleContent)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Gate.Require(domain.RoleAdmin, domain.RoleUser))

			r.Get("/books", h.Books.HandleListActive)
			r.Get("/books/coverImages", h.Books.HandleCoverImages)
			r.Get("/books/{id}", h.Books.HandleGet)
			r.Get("/books/{id}/coverImage", h.Custody.HandleCoverImage)
			r.Get("/books/{id}/content", h.Custody.HandleContent)

			r.Get("/people", h.People.HandleListActive)
			r.Get("/people/{id}", h.People.HandleGet)
		})
	})

	return r
}

func requestIDField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
