package roles

import (
	"context"
	"fmt"
	"testing"

	"github.com/jkoval/accesshub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	roles         map[string]*domain.Role
	nextID        int
	createRoleErr error
	lastUpdate    UpdateFields
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		roles:  make(map[string]*domain.Role),
		nextID: 1,
	}
}

func (m *mockRepository) CreateRole(_ context.Context, role *domain.Role) error {
	if m.createRoleErr != nil {
		return m.createRoleErr
	}
	for _, r := range m.roles {
		if r.Name == role.Name {
			return ErrRoleNameExists
		}
	}
	role.ID = fmt.Sprintf("role-%d", m.nextID)
	m.nextID++
	stored := *role
	m.roles[role.ID] = &stored
	return nil
}

func (m *mockRepository) GetRoleByID(_ context.Context, id string) (*domain.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrRoleNotFound
	}
	out := *r
	return &out, nil
}

func (m *mockRepository) ListRoles(_ context.Context, _ Filter) ([]domain.Role, error) {
	list := make([]domain.Role, 0, len(m.roles))
	for _, r := range m.roles {
		list = append(list, *r)
	}
	return list, nil
}

func (m *mockRepository) UpdateRole(_ context.Context, id string, fields UpdateFields) (*domain.Role, error) {
	m.lastUpdate = fields
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrRoleNotFound
	}
	if fields.Name != nil {
		for _, other := range m.roles {
			if other.ID != id && other.Name == *fields.Name {
				return nil, ErrRoleNameExists
			}
		}
		r.Name = *fields.Name
	}
	if fields.AccessModules != nil {
		r.AccessModules = domain.NewModuleSet(*fields.AccessModules...)
	}
	if fields.Active != nil {
		r.Active = *fields.Active
	}
	out := *r
	return &out, nil
}

func (m *mockRepository) DeleteRole(_ context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *mockRepository) GrantModules(_ context.Context, id string, modules []string) (*domain.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrRoleNotFound
	}
	r.AccessModules = r.AccessModules.Union(modules...)
	out := *r
	return &out, nil
}

func (m *mockRepository) RevokeModule(_ context.Context, id string, module string) (*domain.Role, bool, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, false, ErrRoleNotFound
	}
	modules, removed := r.AccessModules.Remove(module)
	r.AccessModules = modules
	out := *r
	return &out, removed, nil
}

func TestCreate_DefaultsAndDeduplication(t *testing.T) {
	service := NewService(newMockRepository())

	role, err := service.Create(context.Background(), CreateInput{
		Name:          "support",
		AccessModules: []string{"billing", "billing", "", "audit"},
	})

	require.NoError(t, err)
	assert.True(t, role.Active)
	assert.Equal(t, domain.ModuleSet{"audit", "billing"}, role.AccessModules)
}

func TestCreate_RequiresName(t *testing.T) {
	service := NewService(newMockRepository())

	_, err := service.Create(context.Background(), CreateInput{})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreate_DuplicateName(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Create(context.Background(), CreateInput{Name: "support"})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), CreateInput{Name: "support"})
	assert.ErrorIs(t, err, ErrRoleNameExists)
}

func TestUpdate_PartialFields(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	role, err := service.Create(context.Background(), CreateInput{
		Name:          "support",
		AccessModules: []string{"billing"},
	})
	require.NoError(t, err)

	inactive := false
	updated, err := service.Update(context.Background(), role.ID, UpdateFields{
		Active: &inactive,
	})

	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "support", updated.Name, "untouched fields keep their value")
	assert.Equal(t, domain.ModuleSet{"billing"}, updated.AccessModules)
}

func TestUpdate_PreservesConcurrentGrant(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	role, err := service.Create(context.Background(), CreateInput{
		Name:          "support",
		AccessModules: []string{"billing"},
	})
	require.NoError(t, err)

	// A grant lands between the caller reading the role and submitting
	// an unrelated field change.
	_, err = service.Grant(context.Background(), role.ID, []string{"audit"})
	require.NoError(t, err)

	inactive := false
	updated, err := service.Update(context.Background(), role.ID, UpdateFields{
		Active: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModuleSet{"audit", "billing"}, updated.AccessModules)
	assert.Nil(t, repo.lastUpdate.AccessModules, "unrelated updates must not write the module set")
}

func TestUpdate_EmptyNameRejected(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	role, err := service.Create(context.Background(), CreateInput{Name: "support"})
	require.NoError(t, err)

	empty := ""
	_, err = service.Update(context.Background(), role.ID, UpdateFields{Name: &empty})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrant_Idempotent(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	role, err := service.Create(context.Background(), CreateInput{
		Name:          "support",
		AccessModules: []string{"billing"},
	})
	require.NoError(t, err)

	granted, err := service.Grant(context.Background(), role.ID, []string{"audit", "billing"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleSet{"audit", "billing"}, granted.AccessModules)

	again, err := service.Grant(context.Background(), role.ID, []string{"audit"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleSet{"audit", "billing"}, again.AccessModules)
}

func TestGrant_NothingToAdd(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	role, err := service.Create(context.Background(), CreateInput{
		Name:          "support",
		AccessModules: []string{"billing"},
	})
	require.NoError(t, err)

	// Empty strings clean down to nothing; current state is returned
	current, err := service.Grant(context.Background(), role.ID, []string{"", ""})
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleSet{"billing"}, current.AccessModules)
}

func TestRevoke_ReportsPresence(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	role, err := service.Create(context.Background(), CreateInput{
		Name:          "support",
		AccessModules: []string{"billing"},
	})
	require.NoError(t, err)

	after, removed, err := service.Revoke(context.Background(), role.ID, "billing")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, after.AccessModules)

	// Revoking again is a no-op, not an error
	after, removed, err = service.Revoke(context.Background(), role.ID, "billing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, after.AccessModules)
}

func TestRevoke_RequiresModule(t *testing.T) {
	service := NewService(newMockRepository())

	_, _, err := service.Revoke(context.Background(), "a", "")

	assert.ErrorIs(t, err, ErrInvalidInput)
}
