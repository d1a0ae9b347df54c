// internal/auth/tokens.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"libraryhub/internal/domain"
)

// Subject is carried by every issued token.
const Subject = "Details about user"

// Claims identify the bearer of a token.
type Claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 bearer tokens. The signing secret is
// read-only after construction.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the given user. Expiry is computed per token.
func (t *Tokens) Issue(username string, role domain.Role) (string, error) {
	now := t.now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, subject and expiry of raw and
// returns its claims. Every failure wraps domain.ErrInvalidToken.
func (t *Tokens) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	now := t.now()
	switch {
	case !claims.VerifyIssuer(t.issuer, true):
		return nil, fmt.Errorf("%w: unexpected issuer %q", domain.ErrInvalidToken, claims.Issuer)
	case claims.Subject != Subject:
		return nil, fmt.Errorf("%w: unexpected subject %q", domain.ErrInvalidToken, claims.Subject)
	case !claims.VerifyExpiresAt(now, true):
		return nil, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
	case claims.Username == "":
		return nil, fmt.Errorf("%w: missing username", domain.ErrInvalidToken)
	case claims.Role != domain.RoleAdmin && claims.Role != domain.RoleUser:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
