package identity

import (
	"context"
	"testing"

	"github.com/jkoval/accesshub/internal/domain"
	"github.com/jkoval/accesshub/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users     map[string]*domain.User
	passwords map[string]string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:     make(map[string]*domain.User),
		passwords: make(map[string]string),
	}
}

func (m *mockRepository) addUser(t *testing.T, id, email, password string) {
	t.Helper()
	hash, err := NewHasher(4).Hash(password)
	require.NoError(t, err)
	m.users[id] = &domain.User{ID: id, Email: email, PasswordHash: hash}
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return users.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, NewHasher(4), nil)
}

func TestLogin(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "password123")
	service := newTestService(repo)

	identity, err := service.Login(context.Background(), "ada@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, "ada@example.com", identity.Email)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "password123")
	service := newTestService(repo)

	_, err := service.Login(context.Background(), "ada@example.com", "wrong-password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail_SameError(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "password123")
	service := newTestService(repo)

	_, errUnknown := service.Login(context.Background(), "ghost@example.com", "password123")
	_, errWrong := service.Login(context.Background(), "ada@example.com", "wrong-password")

	// An unknown email must be indistinguishable from a bad password
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrong, errUnknown)
}

func TestLogin_Throttled(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "password123")

	limiter := NewLoginLimiter(0.001, 1)
	service := NewService(repo, NewHasher(4), limiter)

	_, err := service.Login(context.Background(), "ada@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(context.Background(), "ada@example.com", "password123")
	assert.ErrorIs(t, err, ErrTooManyAttempts, "burst spent, even correct credentials wait")
}

func TestLoginLimiter_KeyIsCaseInsensitive(t *testing.T) {
	limiter := NewLoginLimiter(0.001, 1)

	assert.True(t, limiter.Allow("Ada@Example.com"))
	assert.False(t, limiter.Allow("ada@example.com"))
}

func TestChangePassword(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "old-password-1")
	service := newTestService(repo)

	err := service.ChangePassword(context.Background(), "user-1", "old-password-1", "new-password-1")
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "ada@example.com", "old-password-1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	identity, err := service.Login(context.Background(), "ada@example.com", "new-password-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "old-password-1")
	service := newTestService(repo)

	err := service.ChangePassword(context.Background(), "user-1", "not-the-password", "new-password-1")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword_TooShort(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(t, "user-1", "ada@example.com", "old-password-1")
	service := newTestService(repo)

	err := service.ChangePassword(context.Background(), "user-1", "old-password-1", "short")

	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestChangePassword_UnknownUser(t *testing.T) {
	service := newTestService(newMockRepository())

	err := service.ChangePassword(context.Background(), "user-404", "whatever-1", "new-password-1")

	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
