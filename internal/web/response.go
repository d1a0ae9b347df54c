// internal/web/response.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"libraryhub/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message   string            `json:"message"`
	Timestamp int64             `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error translates err into a status code and an ErrorResponse. Unknown
// errors are logged and reported without detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	} else {
		hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	JSON(w, status, body)
}

// StatusOf returns the status code Error would use for err.
func StatusOf(err error) int {
	status, _ := classify(err)
	return status
}

func classify(err error) (int, ErrorResponse) {
	body := ErrorResponse{Message: err.Error(), Timestamp: time.Now().UnixMilli()}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Fields = verr.Fields
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrAuthFailure):
		body.Message = domain.ErrAuthFailure.Error()
		return http.StatusUnauthorized, body
	case errors.Is(err, domain.ErrInvalidToken):
		body.Message = domain.ErrInvalidToken.Error()
		return http.StatusUnauthorized, body
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, body
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, body
	default:
		body.Message = "internal server error"
		return http.StatusInternalServerError, body
	}
}
