package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Service implements registration and login on top of the credential store.
type Service struct {
	users  domain.UserRepository
	tokens *TokenService
	logger zerolog.Logger
}

// NewService creates an auth service.
func NewService(users domain.UserRepository, tokens *TokenService, logger zerolog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Register creates an identity with a hashed secret. Emails are normalized
// to lower case before storage so "A@b.com" collides with "a@b.com".
func (s *Service) Register(ctx context.Context, name, email, password string, role domain.UserRole) (*domain.User, error) {
	if role != domain.UserRoleAdmin {
		role = domain.UserRoleUser
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login verifies credentials and issues a session token. Every credential
// failure maps to the same ErrUnauthenticated; the caller cannot learn
// whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			BurnPassword(password)
			return "", nil, domain.ErrUnauthenticated
		}
		return "", nil, err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return "", nil, domain.ErrUnauthenticated
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	if err := s.users.TouchLastSignIn(ctx, user.ID); err != nil {
		// Last-write-wins timestamp; a failed touch must not fail the login.
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("touch last sign-in failed")
	}
	return token, user, nil
}

// ResolveToken verifies a token and re-fetches the identity from the store,
// so role changes apply before the token expires.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}
