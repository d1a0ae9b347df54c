// internal/clients/library_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"libraryhub/internal/auth"
	"libraryhub/internal/catalog"
	"libraryhub/internal/circulation"
	"libraryhub/internal/domain"
	"libraryhub/internal/web"
)

// APIError is a non-2xx answer from the library API. It matches the domain
// error sentinels with errors.Is.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status code: %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusConflict:
		return target == domain.ErrConflict
	case http.StatusBadRequest:
		return target == domain.ErrValidation
	case http.StatusUnauthorized:
		if e.Message == domain.ErrAuthFailure.Error() {
			return target == domain.ErrAuthFailure
		}
		return target == domain.ErrInvalidToken
	case http.StatusForbidden:
		return target == domain.ErrForbidden
	case http.StatusTooManyRequests:
		return target == domain.ErrRateLimited
	case http.StatusServiceUnavailable:
		return target == domain.ErrUnavailable
	}
	return false
}

// LibraryClient talks to the library HTTP API.
type LibraryClient struct {
	baseURL string
	client  *http.Client
	token   string
}

func NewLibraryClient(baseURL string, client *http.Client) *LibraryClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &LibraryClient{baseURL: baseURL, client: client}
}

// WithToken returns a copy of the client that sends token as bearer.
func (c *LibraryClient) WithToken(token string) *LibraryClient {
	cp := *c
	cp.token = token
	return &cp
}

// Login returns a client authenticated as name.
func (c *LibraryClient) Login(ctx context.Context, name, password string) (*LibraryClient, error) {
	var resp auth.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", auth.LoginRequest{Name: name, Password: password}, &resp); err != nil {
		return nil, err
	}
	return c.WithToken(resp.Token), nil
}

// Register signs up a new USER and returns a client authenticated as it.
func (c *LibraryClient) Register(ctx context.Context, in domain.PersonInput) (*LibraryClient, error) {
	var resp auth.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/registration", in, &resp); err != nil {
		return nil, err
	}
	return c.WithToken(resp.Token), nil
}

func (c *LibraryClient) Token() string {
	return c.token
}

func (c *LibraryClient) Show(ctx context.Context) (*auth.Identity, error) {
	var id auth.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/show", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (c *LibraryClient) CreatePerson(ctx context.Context, in domain.PersonInput) (*domain.Person, error) {
	var p domain.Person
	if err := c.do(ctx, http.MethodPost, "/api/admin/createNewPerson", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *LibraryClient) ListPeople(ctx context.Context) ([]domain.Person, error) {
	var people []domain.Person
	if err := c.do(ctx, http.MethodGet, "/api/people", nil, &people); err != nil {
		return nil, err
	}
	return people, nil
}

func (c *LibraryClient) GetPerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	var p domain.Person
	if err := c.do(ctx, http.MethodGet, "/api/people/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *LibraryClient) DeletePerson(ctx context.Context, id uuid.UUID) (*domain.Person, error) {
	var p domain.Person
	if err := c.do(ctx, http.MethodPost, "/api/admin/deletePerson/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *LibraryClient) BooksOwnedBy(ctx context.Context, personID uuid.UUID) ([]domain.Book, error) {
	var books []domain.Book
	if err := c.do(ctx, http.MethodGet, "/api/admin/personsBook/"+personID.String(), nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *LibraryClient) CreateBook(ctx context.Context, in catalog.BookInput) (*domain.Book, error) {
	var b domain.Book
	if err := c.do(ctx, http.MethodPost, "/api/admin/createNewBook", in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBooks returns the books that have not been removed.
func (c *LibraryClient) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	if err := c.do(ctx, http.MethodGet, "/api/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *LibraryClient) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var b domain.Book
	if err := c.do(ctx, http.MethodGet, "/api/books/"+id.String(), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *LibraryClient) Assign(ctx context.Context, bookID, personID uuid.UUID) (*domain.Book, error) {
	var b domain.Book
	path := fmt.Sprintf("/api/admin/%s/assign?personId=%s", bookID, url.QueryEscape(personID.String()))
	if err := c.do(ctx, http.MethodPost, path, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *LibraryClient) Free(ctx context.Context, bookID uuid.UUID) (*domain.Book, error) {
	var b domain.Book
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/admin/%s/free", bookID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *LibraryClient) ReleaseAfterViewing(ctx context.Context, bookID uuid.UUID) (*domain.Book, error) {
	var b domain.Book
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/%s/releaseAfterViewing", bookID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *LibraryClient) ViewContent(ctx context.Context, bookID, personID uuid.UUID) (*circulation.Content, error) {
	var content circulation.Content
	path := fmt.Sprintf("/api/books/%s/content?personId=%s", bookID, url.QueryEscape(personID.String()))
	if err := c.do(ctx, http.MethodGet, path, nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// ViewCover returns the cover bytes and their content type.
func (c *LibraryClient) ViewCover(ctx context.Context, bookID, personID uuid.UUID) ([]byte, string, error) {
	path := fmt.Sprintf("/api/books/%s/coverImage?personId=%s", bookID, url.QueryEscape(personID.String()))
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *LibraryClient) History(ctx context.Context, bookID uuid.UUID) ([]domain.CustodyEvent, error) {
	var events []domain.CustodyEvent
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/admin/%s/history", bookID), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *LibraryClient) CoverImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := c.do(ctx, http.MethodGet, "/api/books/coverImages", nil, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

func (c *LibraryClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError.
func (c *LibraryClient) send(ctx context.Context, method, path string, in interface{}) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	var er web.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Message = er.Message
		apiErr.Fields = er.Fields
	}
	return nil, apiErr
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
