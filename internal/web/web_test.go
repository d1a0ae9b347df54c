package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/domain"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.FieldError("name", "must not be empty"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", domain.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("book x: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("book x: %w", domain.ErrConflict), http.StatusConflict},
		{domain.ErrAuthFailure, http.StatusUnauthorized},
		{fmt.Errorf("%w: expired", domain.ErrInvalidToken), http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("%w: download cover: %w", domain.ErrUnavailable, errors.New("connection refused")), http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal server error", body.Message)
}

func TestError_ReportsFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), domain.FieldError("age", "must be at least 10"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"age": "must be at least 10"}, body.Fields)
}

func TestDecode(t *testing.T) {
	decode := func(body string) (domain.PersonInput, error) {
		var in domain.PersonInput
		err := Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &in)
		return in, err
	}

	in, err := decode(`{"name":"Ivanov Ivan Ivanovich","age":30,"email":"ivan@example.com","phone_number":"+79161234567","password":"pass"}`)
	require.NoError(t, err)
	assert.Equal(t, "Ivanov Ivan Ivanovich", in.Name)
	assert.Equal(t, domain.Role(""), in.Role)

	in, err = decode(`{"name":"Ivanov Ivan Ivanovich","age":30,"email":"ivan@example.com","phone_number":"+79161234567","role":"ROLE_ADMIN"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, in.Role)

	in, err = decode(`{"name":"Ivanov Ivan Ivanovich","age":30,"email":"ivan@example.com","phone_number":"+79161234567","role":""}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Role(""), in.Role)

	_, err = decode(``)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "body")

	_, err = decode(`{"name":`)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "body")

	_, err = decode(`{"name":"Ivan","age":5,"email":"nope","phone_number":"8916","password":"p"}`)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"name":         "must be three words: surname, name and patronymic",
		"age":          "must be at least 10",
		"email":        "must be a valid email address",
		"phone_number": "must match +7XXXXXXXXXX",
		"password":     "must be at least 4 characters",
	}, verr.Fields)

	_, err = decode(`{"name":"Ivanov Ivan Ivanovich","age":30,"email":"ivan@example.com","phone_number":"+79161234567","role":"ROOT"}`)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUUIDParam(t *testing.T) {
	_, err := UUIDParam("id", "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrValidation)

	id, err := UUIDParam("id", "6f1c2a1e-93a5-4c1b-9a53-0c2f2d4b9b11")
	require.NoError(t, err)
	assert.Equal(t, "6f1c2a1e-93a5-4c1b-9a53-0c2f2d4b9b11", id.String())
}
