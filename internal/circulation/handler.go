// internal/circulation/handler.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libraryhub/internal/auth"
	"libraryhub/internal/domain"
	"libraryhub/internal/web"
)

// PersonFinder resolves the person behind an authenticated username.
type PersonFinder interface {
	FindByName(ctx context.Context, name string) (*domain.Person, error)
}

// Content is the readable part of a book returned by a content preview.
type Content struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	YearOfProduction int    `json:"year_of_production"`
	Annotation       string `json:"annotation"`
}

type Handler struct {
	service Service
	people  PersonFinder
}

func NewHandler(service Service, people PersonFinder) *Handler {
	return &Handler{service: service, people: people}
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	bookID, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	personID, err := web.UUIDParam("personId", r.URL.Query().Get("personId"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.Assign(r.Context(), bookID, personID, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleFree(w http.ResponseWriter, r *http.Request) {
	bookID, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.Free(r.Context(), bookID, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	bookID, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.ReleaseAfterViewing(r.Context(), bookID, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	bookID, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	events, err := h.service.History(r.Context(), bookID)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, events)
}

// HandleCoverImage starts a cover preview and streams the image bytes.
func (h *Handler) HandleCoverImage(w http.ResponseWriter, r *http.Request) {
	bookID, personID, err := h.viewRequest(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.ViewCover(r.Context(), bookID, personID, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(book.CoverImage).String())
	w.WriteHeader(http.StatusOK)
	w.Write(book.CoverImage)
}

// HandleContent starts a content preview and returns the readable fields.
func (h *Handler) HandleContent(w http.ResponseWriter, r *http.Request) {
	bookID, personID, err := h.viewRequest(r)
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.ViewContent(r.Context(), bookID, personID, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	web.JSON(w, http.StatusOK, Content{
		Title:            book.Title,
		Author:           book.Author,
		YearOfProduction: book.YearOfProduction,
		Annotation:       book.Annotation,
	})
}

// viewRequest parses a preview request. USER callers may only preview as
// themselves; ADMIN callers may name any person.
func (h *Handler) viewRequest(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	bookID, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	personID, err := web.UUIDParam("personId", r.URL.Query().Get("personId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil, domain.ErrInvalidToken
	}
	if claims.Role == domain.RoleAdmin {
		return bookID, personID, nil
	}

	caller, err := h.people.FindByName(r.Context(), claims.Username)
	if errors.Is(err, domain.ErrNotFound) {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: no person behind user %s", domain.ErrForbidden, claims.Username)
	}
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if caller.ID != personID {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: users may only view books as themselves", domain.ErrForbidden)
	}
	return bookID, personID, nil
}
