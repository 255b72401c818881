//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/jkoval/accesshub/internal/testutil"
	"github.com/stretchr/testify/require"
)

// createTestRole creates a role with the given modules and returns its id and name.
func createTestRole(t *testing.T, client *testutil.Client, modules []string) (id, name string) {
	t.Helper()

	name = testutil.RandomName("role")
	resp, err := client.POST("/api/v1/roles", map[string]interface{}{
		"roleName":      name,
		"accessModules": modules,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		ID       string `json:"id"`
		RoleName string `json:"roleName"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.ID)

	t.Cleanup(func() {
		resp, err := client.WithoutValidation().DELETE("/api/v1/role/" + result.ID)
		if err == nil {
			resp.Body.Close()
		}
	})

	return result.ID, name
}

type userOption func(map[string]interface{})

func withRole(roleID string) userOption {
	return func(payload map[string]interface{}) {
		payload["role"] = roleID
	}
}

func withPassword(password string) userOption {
	return func(payload map[string]interface{}) {
		payload["password"] = password
	}
}

// createTestUser creates a user and returns its id and email.
func createTestUser(t *testing.T, client *testutil.Client, opts ...userOption) (id, email string) {
	t.Helper()

	payload := map[string]interface{}{
		"firstName": "Test",
		"lastName":  "User",
		"email":     testutil.RandomEmail("user"),
		"password":  "password123",
	}
	for _, opt := range opts {
		opt(payload)
	}
	email = payload["email"].(string)

	resp, err := client.POST("/api/v1/users", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.ID)

	t.Cleanup(func() {
		resp, err := client.WithoutValidation().DELETE("/api/v1/user/" + result.ID)
		if err == nil {
			resp.Body.Close()
		}
	})

	return result.ID, email
}
