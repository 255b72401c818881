// Package postgres provides the PostgreSQL implementation of the roles repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jkoval/accesshub/internal/domain"
	"github.com/jkoval/accesshub/internal/roles"
)

const (
	uniqueViolation = "23505"
	invalidUUIDText = "22P02"
)

// Repository implements the roles.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRole creates a new role in the database.
func (r *Repository) CreateRole(ctx context.Context, role *domain.Role) error {
	query := `
		INSERT INTO roles (name, access_modules, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		role.Name,
		[]string(role.AccessModules),
		role.Active,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return roles.ErrRoleNameExists
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// GetRoleByID retrieves a role by its ID.
func (r *Repository) GetRoleByID(ctx context.Context, id string) (*domain.Role, error) {
	query := `
		SELECT id, name, access_modules, active, created_at, updated_at
		FROM roles
		WHERE id = $1
	`
	return r.scanRole(r.db.QueryRow(ctx, query, id))
}

// ListRoles retrieves roles matching the filter, ordered deterministically.
func (r *Repository) ListRoles(ctx context.Context, filter roles.Filter) ([]domain.Role, error) {
	query := `
		SELECT id, name, access_modules, active, created_at, updated_at
		FROM roles
		WHERE $1 = ''
		   OR name ILIKE '%' || $1 || '%'
		   OR EXISTS (SELECT 1 FROM unnest(access_modules) AS m WHERE m ILIKE '%' || $1 || '%')
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, filter.Search)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	list := make([]domain.Role, 0)
	for rows.Next() {
		var role domain.Role
		var modules []string
		err := rows.Scan(
			&role.ID,
			&role.Name,
			&modules,
			&role.Active,
			&role.CreatedAt,
			&role.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		role.AccessModules = domain.NewModuleSet(modules...)
		list = append(list, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return list, nil
}

// UpdateRole writes only the supplied columns in a single statement.
// Keeping access_modules out of the SET clause for unrelated updates
// means a concurrent grant or revoke is never clobbered by a stale
// in-memory copy of the set.
func (r *Repository) UpdateRole(ctx context.Context, id string, fields roles.UpdateFields) (*domain.Role, error) {
	set := make([]string, 0, 4)
	args := []interface{}{id}
	n := 2
	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if fields.Name != nil {
		add("name", *fields.Name)
	}
	if fields.AccessModules != nil {
		add("access_modules", *fields.AccessModules)
	}
	if fields.Active != nil {
		add("active", *fields.Active)
	}
	set = append(set, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE roles
		SET %s
		WHERE id = $1
		RETURNING id, name, access_modules, active, created_at, updated_at
	`, strings.Join(set, ", "))

	role, err := r.scanRole(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, roles.ErrRoleNameExists
		}
		return nil, err
	}
	return role, nil
}

// DeleteRole deletes a role by its ID. The users.role_id foreign key is
// declared ON DELETE SET NULL, so referencing users keep existing with
// the reference cleared in the same transaction as the delete.
func (r *Repository) DeleteRole(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return roles.ErrRoleNotFound
		}
		return fmt.Errorf("delete role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return roles.ErrRoleNotFound
	}
	return nil
}

// GrantModules unions modules into the role's set in one statement, so
// concurrent grants on the same role serialize in the database instead
// of racing through read-then-write in the application.
func (r *Repository) GrantModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	query := `
		UPDATE roles
		SET access_modules = (
			SELECT COALESCE(array_agg(DISTINCT m ORDER BY m), '{}')
			FROM unnest(access_modules || $2::text[]) AS m
		), updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, access_modules, active, created_at, updated_at
	`
	return r.scanRole(r.db.QueryRow(ctx, query, id, modules))
}

// RevokeModule removes one module while holding the row lock, reporting
// whether the module was present in the state the removal observed.
func (r *Repository) RevokeModule(ctx context.Context, id string, module string) (*domain.Role, bool, error) {
	query := `
		WITH prior AS (
			SELECT access_modules FROM roles WHERE id = $1 FOR UPDATE
		)
		UPDATE roles
		SET access_modules = array_remove(roles.access_modules, $2), updated_at = NOW()
		FROM prior
		WHERE roles.id = $1
		RETURNING roles.id, roles.name, roles.access_modules, roles.active,
			roles.created_at, roles.updated_at, $2 = ANY(prior.access_modules)
	`
	var role domain.Role
	var modules []string
	var removed bool
	err := r.db.QueryRow(ctx, query, id, module).Scan(
		&role.ID,
		&role.Name,
		&modules,
		&role.Active,
		&role.CreatedAt,
		&role.UpdatedAt,
		&removed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, false, roles.ErrRoleNotFound
		}
		return nil, false, fmt.Errorf("revoke module: %w", err)
	}
	role.AccessModules = domain.NewModuleSet(modules...)
	return &role, removed, nil
}

func (r *Repository) scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	var modules []string
	err := row.Scan(
		&role.ID,
		&role.Name,
		&modules,
		&role.Active,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, roles.ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	role.AccessModules = domain.NewModuleSet(modules...)
	return &role, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isInvalidUUID reports a malformed id literal; such an id cannot
// reference any row, so callers treat it as not found.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidUUIDText
}
