package users

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jkoval/accesshub/internal/pkg/httputil"
)

// Handler handles HTTP requests for the users module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new users handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes for the users module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.List)
	r.Post("/users", h.Create)

	r.Route("/user/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/access_modules", h.AccessCheck)
	})

	r.Put("/bulk_user_update", h.BulkUpdate)
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=30"`
	LastName  string  `json:"lastName" validate:"required,max=30"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Role      *string `json:"role"`
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.service.Create(r.Context(), CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		RoleID:    req.Role,
	})
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}

// List handles GET /users with an optional search filter over names,
// email, role name, and role module membership.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), Filter{
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, list)
}

// UserDetailResponse is the wire shape of a single-user lookup. Role
// carries the role's name, not its id, and is null for roleless users.
type UserDetailResponse struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Role          *string     `json:"role"`
	AccessModules interface{} `json:"accessModules"`
	Active        bool        `json:"active"`
}

func toDetailResponse(detail *Detail) UserDetailResponse {
	resp := UserDetailResponse{
		ID:        detail.ID,
		Email:     detail.Email,
		FirstName: detail.FirstName,
		LastName:  detail.LastName,
		Role:      detail.RoleName,
		Active:    detail.Active,
	}
	if detail.RoleName != nil {
		resp.AccessModules = detail.AccessModules
	}
	return resp
}

// Get handles GET /user/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toDetailResponse(detail))
}

// Update handles PUT /user/{id}. The body is a field-update map pushed
// through the allow-list; unknown or credential fields are rejected.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	fields, err := ParseUpdateFields(data)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	detail, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toDetailResponse(detail))
}

// Delete handles DELETE /user/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// AccessCheck handles GET /user/{id}/access_modules?module=name. A user
// without a role gets has_access=false, not an error.
func (h *Handler) AccessCheck(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	if module == "" {
		httputil.Error(w, http.StatusBadRequest, "Module name is required")
		return
	}

	hasAccess, err := h.service.HasAccess(r.Context(), chi.URLParam(r, "id"), module)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"has_access": hasAccess})
}

// BulkUpdateRequest is the envelope of PUT /bulk_user_update; Type
// selects uniform ("same_data") or per-record ("different_data") mode.
type BulkUpdateRequest struct {
	Type        string                 `json:"type"`
	UserIDs     []string               `json:"user_ids"`
	UpdateData  map[string]interface{} `json:"update_data"`
	UserUpdates []struct {
		ID   string                 `json:"id"`
		Data map[string]interface{} `json:"data"`
	} `json:"user_updates"`
}

// BulkUpdate handles PUT /bulk_user_update.
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch req.Type {
	case "same_data":
		h.bulkUpdateSame(w, r, req)
	case "different_data":
		h.bulkUpdateEach(w, r, req)
	default:
		httputil.Error(w, http.StatusBadRequest, "Invalid update_type")
	}
}

func (h *Handler) bulkUpdateSame(w http.ResponseWriter, r *http.Request, req BulkUpdateRequest) {
	count, err := h.service.BulkUpdateSame(r.Context(), req.UserIDs, req.UpdateData)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Successfully updated %d users", count),
		"updated_count": count,
	})
}

func (h *Handler) bulkUpdateEach(w http.ResponseWriter, r *http.Request, req BulkUpdateRequest) {
	updates := make([]RecordUpdate, 0, len(req.UserUpdates))
	for _, u := range req.UserUpdates {
		updates = append(updates, RecordUpdate{ID: u.ID, Data: u.Data})
	}

	result, err := h.service.BulkUpdateEach(r.Context(), updates)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	// Partial failures live in the payload; the call itself is a 200.
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"message":       fmt.Sprintf("Updated %d users", len(result.UpdatedIDs)),
		"updated_users": result.UpdatedIDs,
		"errors":        result.Errors,
	})
}

func (h *Handler) handleServiceError(r *http.Request, w http.ResponseWriter, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Error: ErrEmailExists, Status: http.StatusBadRequest, Message: "Email already registered"},
		{Error: ErrRoleRefNotFound, Status: http.StatusBadRequest, Message: "Invalid Role ID"},
		{Error: ErrInvalidInput, Status: http.StatusBadRequest},
	})
}
