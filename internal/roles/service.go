// Package roles implements role storage and access-module grants.
package roles

import (
	"context"
	"fmt"

	"github.com/jkoval/accesshub/internal/domain"
)

// Service implements role business logic.
type Service struct {
	repo Repository
}

// NewService creates a new role service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds data for creating a role.
type CreateInput struct {
	Name          string
	AccessModules []string
}

// Create stores a new role. The module list is deduplicated; a
// duplicate role name fails with ErrRoleNameExists.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Role, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}

	role := &domain.Role{
		Name:          input.Name,
		AccessModules: domain.NewModuleSet(input.AccessModules...),
		Active:        true,
	}

	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Get returns a role by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Role, error) {
	return s.repo.GetRoleByID(ctx, id)
}

// List returns roles matching the filter in a deterministic order.
func (s *Service) List(ctx context.Context, filter Filter) ([]domain.Role, error) {
	return s.repo.ListRoles(ctx, filter)
}

// UpdateFields holds allow-listed role field updates. Nil fields are
// left unchanged.
type UpdateFields struct {
	Name          *string
	AccessModules *[]string
	Active        *bool
}

// Update applies allow-listed field changes to a role. Only the
// supplied fields reach the store, so a grant or revoke landing
// concurrently is never overwritten by a field the caller left alone.
func (s *Service) Update(ctx context.Context, id string, fields UpdateFields) (*domain.Role, error) {
	if fields.Name != nil && *fields.Name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if fields.AccessModules != nil {
		cleaned := []string(domain.NewModuleSet(*fields.AccessModules...))
		fields.AccessModules = &cleaned
	}
	return s.repo.UpdateRole(ctx, id, fields)
}

// Delete removes a role. Users referencing it keep existing; their
// role reference is cleared by the store, never cascaded.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteRole(ctx, id)
}

// Grant unions the given modules into the role's access-module set.
// Granting an already-present module leaves the set unchanged.
func (s *Service) Grant(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	cleaned := domain.NewModuleSet(modules...)
	if len(cleaned) == 0 {
		// Nothing to add; still report the current state.
		return s.repo.GetRoleByID(ctx, id)
	}
	return s.repo.GrantModules(ctx, id, cleaned)
}

// Revoke removes one module from the role's set. A module that is not
// present is a successful no-op, reported via the removed flag.
func (s *Service) Revoke(ctx context.Context, id string, module string) (*domain.Role, bool, error) {
	if module == "" {
		return nil, false, fmt.Errorf("%w: module is required", ErrInvalidInput)
	}
	return s.repo.RevokeModule(ctx, id, module)
}
