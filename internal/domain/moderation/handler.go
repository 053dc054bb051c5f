package moderation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

// Handler handles moderation HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates moderation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Report handles POST /reports
// @Summary Report a chat message
// @Tags Moderation
// @Security BearerAuth
// @Param body body CreateReportRequest true "Report"
// @Router /reports [post]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	report, err := h.service.ReportMessage(r.Context(), middleware.GetUserID(r.Context()), req.MessageID, req.Reason)
	if err != nil {
		h.writeError(w, r, "moderation.report", err)
		return
	}
	response.Created(w, report)
}

// List handles GET /admin/reports?status=&room_id=&reporter_id=&from=&to=&page=&limit=
// @Summary Report queue
// @Tags Admin
// @Security BearerAuth
// @Router /admin/reports [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := ListFilter{Status: ReportStatus(q.Get("status"))}
	filter.RoomID, _ = strconv.ParseInt(q.Get("room_id"), 10, 64)
	filter.ReporterID, _ = strconv.ParseInt(q.Get("reporter_id"), 10, 64)
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "Invalid from date, expected RFC3339")
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(w, "Invalid to date, expected RFC3339")
			return
		}
		filter.To = &t
	}

	reports, total, err := h.service.ListReports(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "moderation.list", err)
		return
	}

	filter.normalize()
	response.WithMeta(w, reports, response.NewMeta(total, filter.Page, filter.Limit))
}

// Get handles GET /admin/reports/{id}
// @Summary Report details
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Router /admin/reports/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	report, err := h.service.GetReport(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "moderation.get", err)
		return
	}
	response.OK(w, report)
}

// Resolve handles POST /admin/reports/{id}/resolve
// @Summary Resolve report
// @Description action is delete_message or dismiss
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param body body ResolveReportRequest true "Resolution"
// @Router /admin/reports/{id}/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	var req ResolveReportRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.Validation(r.Context(), w, errs)
		return
	}

	report, err := h.service.ResolveReport(r.Context(), middleware.GetUserID(r.Context()), id, Action(req.Action))
	if err != nil {
		h.writeError(w, r, "moderation.resolve", err)
		return
	}
	response.OK(w, report)
}

// Evidence handles GET /admin/reports/{id}/evidence
// @Summary Download the archived evidence of a resolved report
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Produce json
// @Router /admin/reports/{id}/evidence [get]
func (h *Handler) Evidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	rc, err := h.service.OpenEvidence(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "moderation.evidence", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%d.json"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		errorhandler.BestEffort(r.Context(), "moderation.evidence_copy", err)
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrReportNotFound):
		response.NotFound(w, "Report not found")
	case errors.Is(err, ErrMessageNotFound):
		response.NotFound(w, "Message not found")
	case errors.Is(err, ErrEvidenceNotFound):
		response.NotFound(w, "No evidence archived for this report")
	case errors.Is(err, ErrAlreadyReported):
		response.Conflict(w, "You have already reported this message")
	case errors.Is(err, ErrAlreadyResolved):
		response.Conflict(w, "Report is already resolved")
	case errors.Is(err, ErrInvalidAction):
		response.BadRequest(w, "Action must be delete_message or dismiss")
	case errors.Is(err, ErrEmptyReason):
		response.ValidationMessages(w, []string{"reason: This field is required"})
	case errors.Is(err, ErrInvalidStatus):
		response.BadRequest(w, "Status must be pending or resolved")
	default:
		errorhandler.Internal(r.Context(), w, op, err)
	}
}
