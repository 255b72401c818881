package roles

import (
	"context"

	"github.com/jkoval/accesshub/internal/domain"
)

// Repository defines the interface for role data operations.
type Repository interface {
	CreateRole(ctx context.Context, role *domain.Role) error
	GetRoleByID(ctx context.Context, id string) (*domain.Role, error)
	ListRoles(ctx context.Context, filter Filter) ([]domain.Role, error)
	// UpdateRole writes the supplied fields in one statement; nil
	// fields stay out of the SET clause so concurrent module changes
	// on the same role survive an unrelated field update.
	UpdateRole(ctx context.Context, id string, fields UpdateFields) (*domain.Role, error)
	DeleteRole(ctx context.Context, id string) error

	// GrantModules adds modules to the role's set as one atomic
	// database-side union; already-present modules are no-ops.
	GrantModules(ctx context.Context, id string, modules []string) (*domain.Role, error)

	// RevokeModule removes one module under a row lock and reports
	// whether it was present before the removal.
	RevokeModule(ctx context.Context, id string, module string) (*domain.Role, bool, error)
}

// Filter represents filter criteria for listing roles. Search matches
// the role name or any access module, case-insensitively.
type Filter struct {
	Search string
}
