package settings

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

// UpdateRequest is the body of PUT /admin/settings/{key}
type UpdateRequest struct {
	Value string `json:"value" validate:"required,max=1000"`
}

// Handler serves system settings to admins
type Handler struct {
	service *Service
}

// NewHandler creates settings handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AdminRoutes mounts under /admin/settings
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.List)
	r.Get("/{key}", h.Get)
	r.Put("/{key}", h.Update)

	return r
}

// List handles GET /admin/settings
// @Summary List system settings
// @Tags Admin
// @Security BearerAuth
// @Router /admin/settings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "settings.list", err)
		return
	}
	response.OK(w, items)
}

// Get handles GET /admin/settings/{key}
// @Summary Get system setting
// @Tags Admin
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Router /admin/settings/{key} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	setting, err := h.service.Get(r.Context(), chi.URLParam(r, "key"))
	switch {
	case errors.Is(err, ErrSettingNotFound):
		response.NotFound(w, "Setting not found")
	case err != nil:
		errorhandler.Internal(r.Context(), w, "settings.get", err)
	default:
		response.OK(w, setting)
	}
}

// Update handles PUT /admin/settings/{key}
// @Summary Create or update system setting
// @Tags Admin
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Param body body UpdateRequest true "New value"
// @Router /admin/settings/{key} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	setting, err := h.service.Set(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "key"), req.Value)
	switch {
	case errors.Is(err, ErrInvalidKey):
		response.BadRequest(w, "Setting key may only contain a-z, 0-9, '_' and '.'")
	case err != nil:
		errorhandler.Internal(r.Context(), w, "settings.update", err)
	default:
		response.OK(w, setting)
	}
}
