package activity

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
)

// Handler serves audit logs to admins
type Handler struct {
	service *Service
}

// NewHandler creates activity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AdminRoutes mounts under /admin/logs
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.List)

	return r
}

// List handles GET /admin/logs?kind=user|admin&actor_id=&action=&from=&to=&page=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := Filter{
		Kind:   Kind(q.Get("kind")),
		Action: q.Get("action"),
	}
	filter.ActorID, _ = strconv.ParseInt(q.Get("actor_id"), 10, 64)
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				response.BadRequest(w, "Invalid "+key+" date, expected RFC3339")
				return
			}
			*dst = &t
		}
	}

	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "activity.list", err)
		return
	}

	filter.normalize()
	response.WithMeta(w, entries, response.NewMeta(total, filter.Page, filter.Limit))
}
