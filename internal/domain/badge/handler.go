package badge

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/storage"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

// maxIconForm leaves room for multipart overhead around the icon itself
const maxIconForm = storage.MaxIconSize + 512*1024

// Handler handles badge HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates badge handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns badge router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/me", h.Mine)
	r.Get("/users/{userID}", h.ForUser)

	return r
}

// AdminRoutes mounts under /admin/badges
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/icon", h.UploadIcon)

	return r
}

func parseID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

// List handles GET /badges
// @Summary Badge catalog
// @Tags Badges
// @Security BearerAuth
// @Router /badges [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	badges, err := h.service.List(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "badge.list", err)
		return
	}
	response.OK(w, badges)
}

// Mine handles GET /badges/me
// @Summary My badges
// @Tags Badges
// @Security BearerAuth
// @Router /badges/me [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	badges, err := h.service.ListUserBadges(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Internal(r.Context(), w, "badge.mine", err)
		return
	}
	response.OK(w, badges)
}

// ForUser handles GET /badges/users/{userID}
// @Summary Badges of a user
// @Tags Badges
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Router /badges/users/{userID} [get]
func (h *Handler) ForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(r, "userID")
	if !ok {
		response.BadRequest(w, "Invalid user ID")
		return
	}
	badges, err := h.service.ListUserBadges(r.Context(), userID)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "badge.for_user", err)
		return
	}
	response.OK(w, badges)
}

// Create handles POST /admin/badges
// @Summary Create badge
// @Tags Admin
// @Security BearerAuth
// @Param body body CreateBadgeRequest true "Badge"
// @Router /admin/badges [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBadgeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	b, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		h.writeError(w, r, "badge.create", err)
		return
	}
	response.Created(w, b)
}

// Update handles PUT /admin/badges/{id}
// @Summary Update badge
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Badge ID"
// @Param body body UpdateBadgeRequest true "Changes"
// @Router /admin/badges/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid badge ID")
		return
	}

	var req UpdateBadgeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	b, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		h.writeError(w, r, "badge.update", err)
		return
	}
	response.OK(w, b)
}

// Delete handles DELETE /admin/badges/{id}
// @Summary Delete badge and its grants
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Badge ID"
// @Router /admin/badges/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid badge ID")
		return
	}
	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		h.writeError(w, r, "badge.delete", err)
		return
	}
	response.NoContent(w)
}

// UploadIcon handles POST /admin/badges/{id}/icon
// Multipart form: icon
// @Summary Upload badge icon
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Badge ID"
// @Router /admin/badges/{id}/icon [post]
func (h *Handler) UploadIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid badge ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxIconForm)
	if err := r.ParseMultipartForm(maxIconForm); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	file, _, err := r.FormFile("icon")
	if err != nil {
		response.BadRequest(w, "No icon provided")
		return
	}
	defer file.Close()

	b, err := h.service.UploadIcon(r.Context(), middleware.GetUserID(r.Context()), id, file)
	if err != nil {
		h.writeError(w, r, "badge.upload_icon", err)
		return
	}
	response.OK(w, b)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrBadgeNotFound):
		response.NotFound(w, "Badge not found")
	case errors.Is(err, ErrBadgeNameTaken):
		response.Conflict(w, "Badge name already exists")
	case errors.Is(err, ErrNoStorage):
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Icon storage is not configured")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.BadRequest(w, "File exceeds maximum size")
	case errors.Is(err, storage.ErrInvalidMimeType):
		response.BadRequest(w, "File type not allowed")
	case errors.Is(err, storage.ErrEmptyFile):
		response.BadRequest(w, "File is empty")
	default:
		errorhandler.Internal(r.Context(), w, op, err)
	}
}
