// Package identity implements credential verification and changes.
package identity

import (
	"context"
	"fmt"

	"github.com/jkoval/accesshub/internal/domain"
	"github.com/jkoval/accesshub/internal/pkg/ctxlog"
	"github.com/jkoval/accesshub/internal/pkg/metrics"
)

// Repository is the slice of user storage this module needs. The users
// module's PostgreSQL repository satisfies it.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// dummyDigest is compared against when the email is unknown, so lookup
// misses cost the same as digest mismatches and the response never
// reveals whether the email exists.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const minPasswordLength = 8

// Service implements authentication business logic.
type Service struct {
	repo    Repository
	hasher  *Hasher
	limiter *LoginLimiter
}

// NewService creates a new identity service. limiter may be nil to
// disable login throttling.
func NewService(repo Repository, hasher *Hasher, limiter *LoginLimiter) *Service {
	return &Service{repo: repo, hasher: hasher, limiter: limiter}
}

// Login verifies the credentials and returns the identity projection.
// Unknown emails and wrong passwords fail identically with
// ErrInvalidCredentials; the stored digest is never exposed.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	if s.limiter != nil && !s.limiter.Allow(email) {
		ctxlog.FromContext(ctx).Warn("login throttled", "email", email)
		return nil, ErrTooManyAttempts
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.hasher.Verify(password, dummyDigest)
		metrics.LoginFailures.Inc()
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.LoginFailures.Inc()
		return nil, ErrInvalidCredentials
	}

	return &domain.Identity{ID: user.ID, Email: user.Email}, nil
}

// ChangePassword is the dedicated credential path: it requires the
// current password and replaces the digest. Generic field updates
// refuse to touch credentials.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(current, user.PasswordHash) {
		metrics.LoginFailures.Inc()
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash)
}
