package maintenance

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

// PruneRequest optionally overrides the configured retention
type PruneRequest struct {
	RetentionDays int `json:"retention_days" validate:"omitempty,min=1,max=3650"`
}

// Handler exposes maintenance tasks to admins
type Handler struct {
	pruner *Pruner
}

// NewHandler creates maintenance handler
func NewHandler(pruner *Pruner) *Handler {
	return &Handler{pruner: pruner}
}

// AdminRoutes mounts under /admin/maintenance
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Post("/prune", h.Prune)

	return r
}

// Prune handles POST /admin/maintenance/prune
// @Summary Delete old logs, ledger rows and read notifications
// @Tags Admin
// @Security BearerAuth
// @Param body body PruneRequest false "Retention override"
// @Router /admin/maintenance/prune [post]
func (h *Handler) Prune(w http.ResponseWriter, r *http.Request) {
	var req PruneRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	res, err := h.pruner.Prune(r.Context(), middleware.GetUserID(r.Context()), req.RetentionDays)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "maintenance.prune", err)
		return
	}
	response.OK(w, res)
}
