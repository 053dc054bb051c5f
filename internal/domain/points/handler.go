package points

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

// AccountResponse adds progress info to an account
type AccountResponse struct {
	*Account
	NextLevelAt int `json:"next_level_at,omitempty"`
}

// AdjustRequest is the body of POST /admin/points/adjust
type AdjustRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Points int    `json:"points" validate:"ne=0"`
	Reason string `json:"reason" validate:"required,notblank,max=255"`
}

// Handler handles points HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates points handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns points router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/me", h.Me)
	r.Get("/me/history", h.History)
	r.Get("/leaderboard", h.Leaderboard)

	return r
}

// AdminRoutes mounts under /admin/points
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Post("/adjust", h.Adjust)

	return r
}

// Me handles GET /points/me
// @Summary My points and level
// @Tags Points
// @Security BearerAuth
// @Router /points/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.GetAccount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Internal(r.Context(), w, "points.me", err)
		return
	}
	response.OK(w, AccountResponse{Account: acc, NextLevelAt: NextLevelAt(acc.Points)})
}

// History handles GET /points/me/history
// @Summary My points history
// @Tags Points
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Router /points/me/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	page, limit := 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	entries, total, err := h.service.ListHistory(r.Context(), middleware.GetUserID(r.Context()), page, limit)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "points.history", err)
		return
	}
	response.WithMeta(w, entries, response.NewMeta(total, page, limit))
}

// Leaderboard handles GET /points/leaderboard
// @Summary Top students by points
// @Tags Points
// @Security BearerAuth
// @Param limit query int false "How many (max 100)"
// @Router /points/leaderboard [get]
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "points.leaderboard", err)
		return
	}
	response.OK(w, entries)
}

// Adjust handles POST /admin/points/adjust
// @Summary Manually award or deduct points
// @Tags Admin
// @Security BearerAuth
// @Param body body AdjustRequest true "Adjustment"
// @Router /admin/points/adjust [post]
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	acc, err := h.service.Adjust(r.Context(), middleware.GetUserID(r.Context()), req.UserID, req.Points, req.Reason)
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	case err != nil:
		errorhandler.Internal(r.Context(), w, "points.adjust", err)
	default:
		response.OK(w, AccountResponse{Account: acc, NextLevelAt: NextLevelAt(acc.Points)})
	}
}
