// Package postgres provides the PostgreSQL implementation of the users repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jkoval/accesshub/internal/domain"
	"github.com/jkoval/accesshub/internal/users"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidUUIDText     = "22P02"
)

// Repository implements the users.Repository interface using
// PostgreSQL. It also satisfies the identity module's repository
// (GetUserByEmail, UpdatePassword) since both read the same table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database. A supplied role id
// must reference an existing role; the foreign key enforces it at
// write time.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.RoleID != nil {
		if _, err := uuid.Parse(*user.RoleID); err != nil {
			return users.ErrRoleRefNotFound
		}
	}

	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		switch {
		case isPgError(err, uniqueViolation):
			return users.ErrEmailExists
		case isPgError(err, foreignKeyViolation):
			return users.ErrRoleRefNotFound
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by its ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, role_id, active, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email, digest included. Lookup is
// case-insensitive, matching the uniqueness rule.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, role_id, active, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

// GetUserDetail retrieves a user with the assigned role's name and modules.
func (r *Repository) GetUserDetail(ctx context.Context, id string) (*users.Detail, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.role_id, u.active,
			u.created_at, u.updated_at, r.name, r.access_modules
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`
	var detail users.Detail
	var modules []string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.FirstName,
		&detail.LastName,
		&detail.Email,
		&detail.RoleID,
		&detail.Active,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.RoleName,
		&modules,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, invalidUUIDText) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user detail: %w", err)
	}
	if modules != nil {
		detail.AccessModules = domain.NewModuleSet(modules...)
	}
	return &detail, nil
}

// ListUsers retrieves users matching the filter, ordered deterministically.
func (r *Repository) ListUsers(ctx context.Context, filter users.Filter) ([]users.ListItem, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.role_id, u.active,
			u.created_at, u.updated_at, r.name
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE $1 = ''
		   OR u.first_name ILIKE '%' || $1 || '%'
		   OR u.last_name ILIKE '%' || $1 || '%'
		   OR u.email ILIKE '%' || $1 || '%'
		   OR r.name ILIKE '%' || $1 || '%'
		   OR EXISTS (SELECT 1 FROM unnest(r.access_modules) AS m WHERE m ILIKE '%' || $1 || '%')
		ORDER BY u.created_at, u.id
	`
	rows, err := r.db.Query(ctx, query, filter.Search)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list := make([]users.ListItem, 0)
	for rows.Next() {
		var item users.ListItem
		err := rows.Scan(
			&item.ID,
			&item.FirstName,
			&item.LastName,
			&item.Email,
			&item.RoleID,
			&item.Active,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.RoleName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return list, nil
}

// DeleteUser deletes a user by its ID.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isPgError(err, invalidUUIDText) {
			return users.ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// ApplyUpdate applies allow-listed field changes to one user in a
// single statement. Row-level locking in the database serializes
// concurrent updates to the same record.
func (r *Repository) ApplyUpdate(ctx context.Context, id string, fields users.UpdateFields) error {
	if _, err := uuid.Parse(id); err != nil {
		return users.ErrUserNotFound
	}
	if fields.RoleID != nil {
		if _, err := uuid.Parse(*fields.RoleID); err != nil {
			return users.ErrRoleRefNotFound
		}
	}

	set, args := buildSet(fields, []interface{}{id})
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1`, strings.Join(set, ", "))

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		switch {
		case isPgError(err, uniqueViolation):
			return users.ErrEmailExists
		case isPgError(err, foreignKeyViolation):
			return users.ErrRoleRefNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// ApplyUpdateToAll applies the same field changes to every existing
// user in ids as one atomic statement. Ids that are malformed or match
// no row are skipped silently; the returned count covers matched rows
// only.
func (r *Repository) ApplyUpdateToAll(ctx context.Context, ids []string, fields users.UpdateFields) (int64, error) {
	if fields.RoleID != nil {
		if _, err := uuid.Parse(*fields.RoleID); err != nil {
			return 0, users.ErrRoleRefNotFound
		}
	}
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	set, args := buildSet(fields, []interface{}{valid})
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ANY($1::uuid[])`, strings.Join(set, ", "))

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		switch {
		case isPgError(err, uniqueViolation):
			return 0, users.ErrEmailExists
		case isPgError(err, foreignKeyViolation):
			return 0, users.ErrRoleRefNotFound
		}
		return 0, fmt.Errorf("bulk update users: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetUserModules returns the access modules of the user's role.
func (r *Repository) GetUserModules(ctx context.Context, id string) (domain.ModuleSet, bool, error) {
	query := `
		SELECT u.role_id, r.access_modules
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`
	var roleID *string
	var modules []string
	err := r.db.QueryRow(ctx, query, id).Scan(&roleID, &modules)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, invalidUUIDText) {
			return nil, false, users.ErrUserNotFound
		}
		return nil, false, fmt.Errorf("get user modules: %w", err)
	}
	if roleID == nil {
		return nil, false, nil
	}
	return domain.NewModuleSet(modules...), true, nil
}

// UpdatePassword replaces the stored password digest.
func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		if isPgError(err, invalidUUIDText) {
			return users.ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// buildSet renders the SET clause for allow-listed fields. args must
// already hold the WHERE parameter at position $1.
func buildSet(fields users.UpdateFields, args []interface{}) ([]string, []interface{}) {
	set := make([]string, 0, 6)
	n := len(args) + 1
	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if fields.FirstName != nil {
		add("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		add("last_name", *fields.LastName)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.Active != nil {
		add("active", *fields.Active)
	}
	if fields.RoleSet {
		if fields.RoleID != nil {
			add("role_id", *fields.RoleID)
		} else {
			set = append(set, "role_id = NULL")
		}
	}
	set = append(set, "updated_at = NOW()")

	return set, args
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgError(err, invalidUUIDText) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
