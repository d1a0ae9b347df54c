// internal/auth/handler.go
package auth

import (
	"net/http"

	"libraryhub/internal/domain"
	"libraryhub/internal/web"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	Token string `json:"jwt-token"`
}

// Identity describes the caller of GET /auth/show.
type Identity struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, r, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) HandleRegistration(w http.ResponseWriter, r *http.Request) {
	var in domain.PersonInput
	if err := web.Decode(r, &in); err != nil {
		web.Error(w, r, err)
		return
	}

	token, err := h.service.Register(r.Context(), in)
	if err != nil {
		web.Error(w, r, err)
		return
	}
	web.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) HandleShow(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		web.Error(w, r, domain.ErrInvalidToken)
		return
	}
	web.JSON(w, http.StatusOK, Identity{Username: claims.Username, Role: claims.Role})
}
