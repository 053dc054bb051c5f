package auth

import (
	"net/http"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /auth/register
// @Summary Register a student account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response{data=AuthResponse}
// @Failure 400,409,422,500 {object} response.Response
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrEmailAlreadyExists:
			response.Conflict(w, "Email already registered")
		default:
			errorhandler.Internal(r.Context(), w, "auth.register", err)
		}
		return
	}

	response.Created(w, result)
}

// Login handles POST /auth/login
// @Summary Sign in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=AuthResponse}
// @Failure 400,401,422,500 {object} response.Response
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			response.Unauthorized(w, "Invalid email or password")
		default:
			errorhandler.Internal(r.Context(), w, "auth.login", err)
		}
		return
	}

	response.OK(w, result)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case ErrRefreshTokenRequired:
			response.BadRequest(w, "Refresh token is required")
		case ErrInvalidRefreshToken, ErrUserNotFound:
			response.Unauthorized(w, "Invalid or expired refresh token")
		default:
			errorhandler.Internal(r.Context(), w, "auth.refresh", err)
		}
		return
	}

	response.OK(w, result)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = response.DecodeJSON(r.Body, &req)

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		errorhandler.Internal(r.Context(), w, "auth.logout", err)
		return
	}

	response.NoContent(w)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetCurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if err == ErrUserNotFound {
			response.NotFound(w, "User not found")
			return
		}
		errorhandler.Internal(r.Context(), w, "auth.me", err)
		return
	}

	response.OK(w, result)
}

// UpdateMe handles PUT /auth/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		if err == ErrUserNotFound {
			response.NotFound(w, "User not found")
			return
		}
		errorhandler.Internal(r.Context(), w, "auth.update_me", err)
		return
	}

	response.OK(w, result)
}
