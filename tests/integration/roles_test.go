//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/jkoval/accesshub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roleResult struct {
	ID            string   `json:"id"`
	RoleName      string   `json:"roleName"`
	AccessModules []string `json:"accessModules"`
	Active        bool     `json:"active"`
	Message       string   `json:"message"`
}

func TestRoles_CRUD(t *testing.T) {
	client := newTestClient(t)

	id, name := createTestRole(t, client, []string{"billing", "reports"})

	resp, err := client.GET("/api/v1/role/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var role roleResult
	testutil.DecodeJSON(t, resp, &role)
	assert.Equal(t, name, role.RoleName)
	assert.Equal(t, []string{"billing", "reports"}, role.AccessModules)
	assert.True(t, role.Active)

	// Rename and deactivate
	newName := testutil.RandomName("role-renamed")
	resp, err = client.PUT("/api/v1/role/"+id, map[string]interface{}{
		"roleName": newName,
		"active":   false,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	testutil.DecodeJSON(t, resp, &role)
	assert.Equal(t, newName, role.RoleName)
	assert.False(t, role.Active)
	assert.Equal(t, []string{"billing", "reports"}, role.AccessModules, "modules untouched by field update")

	resp, err = client.DELETE("/api/v1/role/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.GET("/api/v1/role/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestRoles_DuplicateName(t *testing.T) {
	client := newTestClient(t)

	_, name := createTestRole(t, client, nil)

	resp, err := client.POST("/api/v1/roles", map[string]interface{}{
		"roleName": name,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRoles_List_Search(t *testing.T) {
	client := newTestClient(t)

	_, name := createTestRole(t, client, []string{"payments"})

	resp, err := client.GET("/api/v1/roles?search=" + name)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list []roleResult
	testutil.DecodeJSON(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, name, list[0].RoleName)

	// Module membership also matches
	resp, err = client.GET("/api/v1/roles?search=payments")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	testutil.DecodeJSON(t, resp, &list)
	found := false
	for _, r := range list {
		if r.RoleName == name {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRoles_GrantModules(t *testing.T) {
	client := newTestClient(t)

	id, _ := createTestRole(t, client, []string{"billing"})

	resp, err := client.PUT("/api/v1/role/"+id+"/access_modules", map[string]interface{}{
		"modules": []string{"reports", "billing", "audit"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var role roleResult
	testutil.DecodeJSON(t, resp, &role)
	assert.Equal(t, []string{"audit", "billing", "reports"}, role.AccessModules)

	// Granting again is a no-op
	resp, err = client.PUT("/api/v1/role/"+id+"/access_modules", map[string]interface{}{
		"modules": []string{"audit", "reports"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	testutil.DecodeJSON(t, resp, &role)
	assert.Equal(t, []string{"audit", "billing", "reports"}, role.AccessModules)
}

func TestRoles_GrantModules_NotAList(t *testing.T) {
	client := newTestClientWithoutValidation()

	validated := newTestClient(t)
	id, _ := createTestRole(t, validated, nil)

	resp, err := client.PUT("/api/v1/role/"+id+"/access_modules", map[string]interface{}{
		"modules": "billing",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, testutil.ReadBody(t, resp), "Modules must be a list")
}

func TestRoles_GrantModules_NullModules(t *testing.T) {
	client := newTestClientWithoutValidation()

	validated := newTestClient(t)
	id, _ := createTestRole(t, validated, []string{"billing"})

	resp, err := client.PUT("/api/v1/role/"+id+"/access_modules", map[string]interface{}{
		"modules": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, testutil.ReadBody(t, resp), "Modules must be a list")
}

func TestRoles_RevokeModule(t *testing.T) {
	client := newTestClient(t)

	id, _ := createTestRole(t, client, []string{"billing", "reports"})

	body := map[string]interface{}{"module": "billing"}
	resp, err := client.DELETEWithBody("/api/v1/role/"+id+"/access_modules", body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var role roleResult
	testutil.DecodeJSON(t, resp, &role)
	assert.Equal(t, "Module 'billing' removed successfully", role.Message)
	assert.Equal(t, []string{"reports"}, role.AccessModules)

	// Revoking a module that is not present reports it and changes nothing
	resp, err = client.DELETEWithBody("/api/v1/role/"+id+"/access_modules", body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	testutil.DecodeJSON(t, resp, &role)
	assert.Equal(t, "Module 'billing' not found in access modules", role.Message)
	assert.Equal(t, []string{"reports"}, role.AccessModules)
}

func TestRoles_NotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/v1/role/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Malformed id is indistinguishable from an unknown one
	resp, err = client.GET("/api/v1/role/not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
