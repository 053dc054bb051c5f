package moderation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /reports
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Report)

	return r
}

// AdminRoutes mounts under /admin/reports
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/resolve", h.Resolve)
	r.Get("/{id}/evidence", h.Evidence)

	return r
}
