package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns notification router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/unread-count", h.GetUnreadCount)
	r.Post("/{id}/read", h.MarkAsRead)
	r.Post("/read-all", h.MarkAllAsRead)

	return r
}

// List handles GET /notifications
// @Summary List my notifications
// @Tags Notifications
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 100)"
// @Param unread query bool false "Only unread"
// @Router /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, limit := 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notifications, total, err := h.service.List(r.Context(), userID, unreadOnly, page, limit)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "notification.list", err)
		return
	}

	now := time.Now()
	items := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationResponseFromEntity(n, now)
	}

	response.WithMeta(w, items, response.NewMeta(total, page, limit))
}

// GetUnreadCount handles GET /notifications/unread-count
// @Summary Unread notification count
// @Tags Notifications
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.GetUnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Internal(r.Context(), w, "notification.unread_count", err)
		return
	}
	response.OK(w, UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead handles POST /notifications/{id}/read
// @Summary Mark notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	err = h.service.MarkAsRead(r.Context(), middleware.GetUserID(r.Context()), id)
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		response.NotFound(w, "Notification not found")
	case err != nil:
		errorhandler.Internal(r.Context(), w, "notification.mark_read", err)
	default:
		response.OK(w, map[string]string{"status": "ok"})
	}
}

// MarkAllAsRead handles POST /notifications/read-all
// @Summary Mark all notifications as read
// @Tags Notifications
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllAsRead(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Internal(r.Context(), w, "notification.mark_all_read", err)
		return
	}
	response.OK(w, MarkAllResponse{Updated: n})
}
