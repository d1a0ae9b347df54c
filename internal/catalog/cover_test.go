package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/domain"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func coverServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/cover.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not an image</body></html>"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCoverFetcher_Fetch(t *testing.T) {
	srv := coverServer(t)
	f := NewCoverFetcher(time.Second, 1024)

	body, err := f.Fetch(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, body)
}

func TestCoverFetcher_RejectsBadInput(t *testing.T) {
	srv := coverServer(t)

	tests := map[string]struct {
		url      string
		maxBytes int64
	}{
		"not an image":  {srv.URL + "/page.html", 1024},
		"empty body":    {srv.URL + "/empty", 1024},
		"missing":       {srv.URL + "/nope.png", 1024},
		"too large":     {srv.URL + "/cover.png", 8},
		"not http":      {"ftp://example.com/cover.png", 1024},
		"relative path": {"/cover.png", 1024},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := NewCoverFetcher(time.Second, tt.maxBytes)
			_, err := f.Fetch(context.Background(), tt.url)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCoverFetcher_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewCoverFetcher(time.Second, 1024)
	for i := 0; i < 5; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/cover.png")
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.NotErrorIs(t, err, domain.ErrValidation)
	}

	_, err := f.Fetch(context.Background(), srv.URL+"/cover.png")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, int32(5), hits.Load())
}

func TestCoverFetcher_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewCoverFetcher(time.Second, 1024).Fetch(context.Background(), addr+"/cover.png")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestCoverFetcher_ValidationDoesNotTripBreaker(t *testing.T) {
	srv := coverServer(t)
	f := NewCoverFetcher(time.Second, 1024)

	for i := 0; i < 10; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/page.html")
		assert.ErrorIs(t, err, domain.ErrValidation)
	}

	_, err := f.Fetch(context.Background(), srv.URL+"/cover.png")
	assert.NoError(t, err)
}
