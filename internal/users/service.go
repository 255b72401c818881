// Package users implements user storage, access checks, and bulk updates.
package users

import (
	"context"
	"fmt"

	"github.com/jkoval/accesshub/internal/domain"
)

// PasswordHasher produces password digests for storage. Implemented by
// the identity module's bcrypt hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Service implements user business logic.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

// NewService creates a new user service.
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// CreateInput holds data for creating a user.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	RoleID    *string
}

// Create stores a new user. The email must be syntactically valid and
// unused; a supplied role id must resolve to an existing role. The
// password is stored only as a digest.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrInvalidInput)
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		RoleID:       input.RoleID,
		Active:       true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// GetDetail returns a user with the assigned role's name and modules.
func (s *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	return s.repo.GetUserDetail(ctx, id)
}

// List returns users matching the filter in a deterministic order.
func (s *Service) List(ctx context.Context, filter Filter) ([]ListItem, error) {
	return s.repo.ListUsers(ctx, filter)
}

// Update applies allow-listed field changes to one user.
func (s *Service) Update(ctx context.Context, id string, fields UpdateFields) (*Detail, error) {
	if !fields.IsEmpty() {
		if err := s.repo.ApplyUpdate(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.GetUserDetail(ctx, id)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}

// HasAccess reports whether the user's role grants the named module.
// A user without a role has access to nothing; that is a false result,
// not an error. An empty module name is a validation error.
func (s *Service) HasAccess(ctx context.Context, userID, module string) (bool, error) {
	if module == "" {
		return false, fmt.Errorf("%w: module name is required", ErrInvalidInput)
	}

	modules, hasRole, err := s.repo.GetUserModules(ctx, userID)
	if err != nil {
		return false, err
	}
	if !hasRole {
		return false, nil
	}
	return modules.Contains(module), nil
}
