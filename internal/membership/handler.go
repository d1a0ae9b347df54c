// internal/membership/handler.go
package membership

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"libraryhub/internal/auth"
	"libraryhub/internal/domain"
	"libraryhub/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in domain.PersonInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}

	person, err := h.service.CreatePerson(r.Context(), in, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, person)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	var in domain.PersonInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}

	person, err := h.service.UpdatePerson(r.Context(), id, in, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, person)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	person, err := h.service.SoftDelete(r.Context(), id, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, person)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	person, err := h.service.GetPerson(r.Context(), id)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, person)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	people, err := h.service.ListActive(r.Context())
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, people)
}

func (h *Handler) HandleListDeleted(w http.ResponseWriter, r *http.Request) {
	people, err := h.service.ListDeleted(r.Context())
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, people)
}

func (h *Handler) HandleBooksOwned(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	books, err := h.service.BooksOwnedBy(r.Context(), id)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, books)
}
