//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/jkoval/accesshub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userDetailResult struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Role          *string  `json:"role"`
	AccessModules []string `json:"accessModules"`
	Active        bool     `json:"active"`
}

func TestUsers_CRUD(t *testing.T) {
	client := newTestClient(t)

	roleID, roleName := createTestRole(t, client, []string{"billing"})
	id, email := createTestUser(t, client, withRole(roleID))

	resp, err := client.GET("/api/v1/user/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail userDetailResult
	testutil.DecodeJSON(t, resp, &detail)
	assert.Equal(t, email, detail.Email)
	require.NotNil(t, detail.Role)
	assert.Equal(t, roleName, *detail.Role)
	assert.Equal(t, []string{"billing"}, detail.AccessModules)
	assert.True(t, detail.Active)

	resp, err = client.PUT("/api/v1/user/"+id, map[string]interface{}{
		"firstName": "Renamed",
		"active":    false,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	testutil.DecodeJSON(t, resp, &detail)
	assert.Equal(t, "Renamed", detail.FirstName)
	assert.False(t, detail.Active)

	resp, err = client.DELETE("/api/v1/user/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.GET("/api/v1/user/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUsers_RoleDeletion_ClearsReference(t *testing.T) {
	client := newTestClient(t)

	roleID, _ := createTestRole(t, client, []string{"billing"})
	id, _ := createTestUser(t, client, withRole(roleID))

	resp, err := client.DELETE("/api/v1/role/" + roleID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The user survives the role, with the reference cleared
	resp, err = client.GET("/api/v1/user/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail userDetailResult
	testutil.DecodeJSON(t, resp, &detail)
	assert.Nil(t, detail.Role)
	assert.Nil(t, detail.AccessModules)
}

func TestUsers_DuplicateEmail_CaseInsensitive(t *testing.T) {
	client := newTestClient(t)

	_, email := createTestUser(t, client)

	resp, err := client.POST("/api/v1/users", map[string]interface{}{
		"firstName": "Other",
		"lastName":  "User",
		"email":     strings.ToUpper(email),
		"password":  "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, testutil.ReadBody(t, resp), "Email already registered")
}

func TestUsers_Create_UnknownRole(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/users", map[string]interface{}{
		"firstName": "No",
		"lastName":  "Role",
		"email":     testutil.RandomEmail("norole"),
		"password":  "password123",
		"role":      "00000000-0000-0000-0000-000000000000",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, testutil.ReadBody(t, resp), "Invalid Role ID")
}

func TestUsers_Update_RejectsPassword(t *testing.T) {
	client := newTestClient(t)

	id, _ := createTestUser(t, client)

	resp, err := client.PUT("/api/v1/user/"+id, map[string]interface{}{
		"password": "newpassword123",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUsers_Update_RejectsUnknownField(t *testing.T) {
	client := newTestClient(t)

	id, _ := createTestUser(t, client)

	resp, err := client.PUT("/api/v1/user/"+id, map[string]interface{}{
		"nickname": "root",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUsers_Update_ClearRole(t *testing.T) {
	client := newTestClient(t)

	roleID, _ := createTestRole(t, client, nil)
	id, _ := createTestUser(t, client, withRole(roleID))

	resp, err := client.PUT("/api/v1/user/"+id, map[string]interface{}{
		"role": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail userDetailResult
	testutil.DecodeJSON(t, resp, &detail)
	assert.Nil(t, detail.Role)
}

func TestUsers_List_Search(t *testing.T) {
	client := newTestClient(t)

	_, email := createTestUser(t, client)

	resp, err := client.GET("/api/v1/users?search=" + email)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list []struct {
		Email string `json:"email"`
	}
	testutil.DecodeJSON(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, email, list[0].Email)
}
