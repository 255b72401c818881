package users

import (
	"context"

	"github.com/jkoval/accesshub/internal/domain"
)

// Repository defines the interface for user data operations.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserDetail(ctx context.Context, id string) (*Detail, error)
	ListUsers(ctx context.Context, filter Filter) ([]ListItem, error)
	DeleteUser(ctx context.Context, id string) error

	// ApplyUpdate applies allow-listed field changes to one user as a
	// single statement, so concurrent updates to the same record
	// serialize in the database.
	ApplyUpdate(ctx context.Context, id string, fields UpdateFields) error

	// ApplyUpdateToAll applies the same field changes to every existing
	// user in ids as one atomic statement and returns how many rows
	// matched. Missing ids are skipped silently.
	ApplyUpdateToAll(ctx context.Context, ids []string, fields UpdateFields) (int64, error)

	// GetUserModules returns the access modules of the user's role.
	// hasRole is false when no role is assigned.
	GetUserModules(ctx context.Context, id string) (modules domain.ModuleSet, hasRole bool, err error)
}

// Filter represents filter criteria for listing users. Search matches
// name, email, role name, or role module membership, case-insensitively.
type Filter struct {
	Search string
}

// Detail is a user projection including the assigned role's name and
// modules, for single-user lookups.
type Detail struct {
	domain.User
	RoleName      *string          `json:"roleName"`
	AccessModules domain.ModuleSet `json:"accessModules,omitempty"`
}

// ListItem is the listing projection of a user.
type ListItem struct {
	domain.User
	RoleName *string `json:"roleName"`
}
