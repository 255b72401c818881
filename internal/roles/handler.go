package roles

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jkoval/accesshub/internal/domain"
	"github.com/jkoval/accesshub/internal/pkg/httputil"
)

// Handler handles HTTP requests for the roles module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new roles handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes for the roles module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/roles", h.List)
	r.Post("/roles", h.Create)

	r.Route("/role/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Put("/access_modules", h.Grant)
		r.Delete("/access_modules", h.Revoke)
	})
}

// RoleResponse is the wire shape of a role.
type RoleResponse struct {
	ID            string           `json:"id"`
	RoleName      string           `json:"roleName"`
	AccessModules domain.ModuleSet `json:"accessModules"`
	Active        bool             `json:"active"`
}

// RoleListItem extends RoleResponse with the creation timestamp for listings.
type RoleListItem struct {
	RoleResponse
	CreatedAt time.Time `json:"createdAt"`
}

func toRoleResponse(role *domain.Role) RoleResponse {
	return RoleResponse{
		ID:            role.ID,
		RoleName:      role.Name,
		AccessModules: role.AccessModules,
		Active:        role.Active,
	}
}

// CreateRoleRequest represents the request body for creating a role.
type CreateRoleRequest struct {
	RoleName      string   `json:"roleName" validate:"required,min=1,max=100"`
	AccessModules []string `json:"accessModules"`
}

// Create handles POST /roles.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	role, err := h.service.Create(r.Context(), CreateInput{
		Name:          req.RoleName,
		AccessModules: req.AccessModules,
	})
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"id":       role.ID,
		"roleName": role.Name,
	})
}

// List handles GET /roles with an optional search filter over role
// names and module membership.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), Filter{
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	items := make([]RoleListItem, 0, len(list))
	for i := range list {
		items = append(items, RoleListItem{
			RoleResponse: toRoleResponse(&list[i]),
			CreatedAt:    list[i].CreatedAt,
		})
	}
	httputil.JSON(w, http.StatusOK, items)
}

// Get handles GET /role/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toRoleResponse(role))
}

// UpdateRoleRequest represents the allow-listed role field updates.
type UpdateRoleRequest struct {
	RoleName      *string   `json:"roleName"`
	AccessModules *[]string `json:"accessModules"`
	Active        *bool     `json:"active"`
}

// Update handles PUT /role/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	role, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateFields{
		Name:          req.RoleName,
		AccessModules: req.AccessModules,
		Active:        req.Active,
	})
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toRoleResponse(role))
}

// Delete handles DELETE /role/{id}. Users referencing the role are kept
// and their role reference cleared.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Role deleted successfully"})
}

// Grant handles PUT /role/{id}/access_modules.
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Modules json.RawMessage `json:"modules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	// A missing key or JSON null is not a list either.
	if len(req.Modules) == 0 || string(req.Modules) == "null" {
		httputil.Error(w, http.StatusBadRequest, "Modules must be a list")
		return
	}

	var modules []string
	if err := json.Unmarshal(req.Modules, &modules); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Modules must be a list")
		return
	}

	role, err := h.service.Grant(r.Context(), chi.URLParam(r, "id"), modules)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toRoleResponse(role))
}

// RevokeResponse is the wire shape of a revoke outcome. The message
// distinguishes a removal from the not-present no-op; both are 200s.
type RevokeResponse struct {
	ID            string           `json:"id"`
	RoleName      string           `json:"roleName"`
	AccessModules domain.ModuleSet `json:"accessModules"`
	Message       string           `json:"message"`
}

// Revoke handles DELETE /role/{id}/access_modules.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Module string `json:"module"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	role, removed, err := h.service.Revoke(r.Context(), chi.URLParam(r, "id"), req.Module)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	message := fmt.Sprintf("Module '%s' not found in access modules", req.Module)
	if removed {
		message = fmt.Sprintf("Module '%s' removed successfully", req.Module)
	}

	httputil.JSON(w, http.StatusOK, RevokeResponse{
		ID:            role.ID,
		RoleName:      role.Name,
		AccessModules: role.AccessModules,
		Message:       message,
	})
}

func (h *Handler) handleServiceError(r *http.Request, w http.ResponseWriter, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrRoleNotFound, Status: http.StatusNotFound, Message: "Role not found"},
		{Error: ErrRoleNameExists, Status: http.StatusBadRequest},
		{Error: ErrInvalidInput, Status: http.StatusBadRequest},
	})
}
