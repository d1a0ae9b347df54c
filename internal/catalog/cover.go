package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sony/gobreaker"

	"libraryhub/internal/domain"
)

const coverField = "cover_image_url"

// CoverFetcher downloads cover images. Repeated remote failures open a
// circuit breaker so book creation fails fast while the source is down.
type CoverFetcher struct {
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	maxBytes int64
}

func NewCoverFetcher(timeout time.Duration, maxBytes int64) *CoverFetcher {
	return &CoverFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "cover-download",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// Validation failures do not count against the breaker.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, domain.ErrValidation)
			},
		}),
	}
}

// Fetch downloads rawURL and returns the bytes if they are an image.
func (f *CoverFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.FieldError(coverField, "must be an absolute http(s) URL")
	}

	body, err := f.breaker.Execute(func() (interface{}, error) {
		return f.download(ctx, u.String())
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: cover downloads temporarily disabled: %w", domain.ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (f *CoverFetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.FieldError(coverField, "is not a valid URL")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download cover: %w", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: download cover: unexpected status code: %d", domain.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, domain.FieldError(coverField, fmt.Sprintf("could not be downloaded (status %d)", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read cover: %w", domain.ErrUnavailable, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, domain.FieldError(coverField, fmt.Sprintf("image is larger than %d bytes", f.maxBytes))
	}
	if len(body) == 0 {
		return nil, domain.FieldError(coverField, "returned an empty body")
	}

	if mt := mimetype.Detect(body); !strings.HasPrefix(mt.String(), "image/") {
		return nil, domain.FieldError(coverField, "does not point to an image (detected "+mt.String()+")")
	}
	return body, nil
}
