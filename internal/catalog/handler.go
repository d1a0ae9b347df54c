// internal/catalog/handler.go
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"libraryhub/internal/auth"
	"libraryhub/internal/web"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in BookInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), in, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusCreated, book)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	var in BookInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, in, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.SoftDelete(r.Context(), id, auth.Actor(r.Context()))
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := web.UUIDParam("id", chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, r, err)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, book)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListActive(r.Context())
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleListDeleted(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListDeleted(r.Context())
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, books)
}

func (h *Handler) HandleCoverImages(w http.ResponseWriter, r *http.Request) {
	urls, err := h.service.CoverImageURLs(r.Context())
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, urls)
}
