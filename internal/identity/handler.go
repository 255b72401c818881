package identity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jkoval/accesshub/internal/pkg/httputil"
	"github.com/jkoval/accesshub/internal/users"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	users     *users.Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler. Signup is delegated to the
// users service so both creation paths share validation and hashing.
func NewHandler(service *Service, usersService *users.Service) *Handler {
	return &Handler{
		service:   service,
		users:     usersService,
		validator: validator.New(),
	}
}

// RegisterRoutes registers identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
	r.Put("/user/{id}/password", h.ChangePassword)
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	identity, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"id":    identity.ID,
		"email": identity.Email,
	})
}

// SignupRequest represents the self-registration request body.
type SignupRequest struct {
	FirstName string  `json:"firstName" validate:"required,max=30"`
	LastName  string  `json:"lastName" validate:"required,max=30"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Role      *string `json:"role"`
}

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), users.CreateInput{
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

// ChangePasswordRequest represents the credential change request body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// ChangePassword handles PUT /user/{id}/password. This is the only
// write path for credentials; generic user updates reject the field.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "id"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.handleServiceError(r, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(r *http.Request, w http.ResponseWriter, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid credentials"},
		{Error: ErrTooManyAttempts, Status: http.StatusTooManyRequests, Message: "Too many login attempts"},
		{Error: ErrPasswordTooShort, Status: http.StatusBadRequest},
		{Error: users.ErrUserNotFound, Status: http.StatusNotFound, Message: "User not found"},
		{Error: users.ErrEmailExists, Status: http.StatusBadRequest, Message: "Email already registered"},
		{Error: users.ErrRoleRefNotFound, Status: http.StatusBadRequest, Message: "Invalid Role ID"},
		{Error: users.ErrInvalidInput, Status: http.StatusBadRequest},
	})
}
