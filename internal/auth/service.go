// internal/auth/service.go
package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"libraryhub/internal/domain"
)

// People is the part of the people directory authentication relies on.
type People interface {
	VerifyCredentials(ctx context.Context, name, password string) (*domain.Person, error)
	CreatePerson(ctx context.Context, in domain.PersonInput, actor string) (*domain.Person, error)
}

// Service logs people in and registers new users. Nothing is persisted on
// login; every request carries its own token.
type Service struct {
	people      People
	tokens      *Tokens
	rateLimiter *Limiter
	log         zerolog.Logger
}

// NewService builds the authentication service. Attempts are throttled per
// account name by limiter.
func NewService(people People, tokens *Tokens, limiter *Limiter, log zerolog.Logger) *Service {
	return &Service{
		people:      people,
		tokens:      tokens,
		rateLimiter: limiter,
		log:         log.With().Str("component", "auth").Logger(),
	}
}

// Login checks the credentials and issues a token. No token is returned on
// any failure.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	if !s.rateLimiter.Allow("login:" + name) {
		s.log.Warn().Str("name", name).Msg("login throttled")
		return "", domain.ErrRateLimited
	}

	person, err := s.people.VerifyCredentials(ctx, name, password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailure) {
			s.log.Info().Str("name", name).Msg("login rejected")
		}
		return "", err
	}

	token, err := s.tokens.Issue(person.Name, person.Role)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("name", name).Str("role", string(person.Role)).Msg("login succeeded")
	return token, nil
}

// Register creates a USER account and logs it in. The requested role is
// ignored.
func (s *Service) Register(ctx context.Context, in domain.PersonInput) (string, error) {
	if !s.rateLimiter.Allow("register:" + in.Name) {
		return "", domain.ErrRateLimited
	}

	in.Role = domain.RoleUser
	person, err := s.people.CreatePerson(ctx, in, in.Name)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(person.Name, person.Role)
}
