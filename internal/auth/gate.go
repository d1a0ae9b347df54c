// internal/auth/gate.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"libraryhub/internal/domain"
	"libraryhub/internal/web"
)

type contextKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Gate.Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Actor is the username recorded as author of changes made in ctx.
func Actor(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Username
	}
	return ""
}

// Gate resolves bearer credentials and enforces role checks.
type Gate struct {
	tokens *Tokens
}

func NewGate(tokens *Tokens) *Gate {
	return &Gate{tokens: tokens}
}

// Authorize allows claims holding any of roles.
func (g *Gate) Authorize(claims *Claims, roles ...domain.Role) error {
	if claims == nil {
		return fmt.Errorf("%w: not authenticated", domain.ErrInvalidToken)
	}
	for _, role := range roles {
		if claims.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s may not access this resource", domain.ErrForbidden, claims.Role)
}

// Authenticate rejects requests without a valid bearer token and stores
// the token's claims in the request context.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			web.Error(w, r, fmt.Errorf("%w: missing bearer token", domain.ErrInvalidToken))
			return
		}

		claims, err := g.tokens.Validate(strings.TrimSpace(raw))
		if err != nil {
			web.Error(w, r, err)
			return
		}

		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user", claims.Username)
		})
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Require only lets through callers holding one of roles. It must run
// after Authenticate.
func (g *Gate) Require(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if err := g.Authorize(claims, roles...); err != nil {
				web.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
