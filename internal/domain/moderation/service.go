package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/polyeduhub/polyeduhub-api/internal/domain/chat"
	"github.com/polyeduhub/polyeduhub-api/internal/domain/points"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/storage"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/text"
)

const (
	noteDeleted   = "Message deleted due to violation"
	noteDismissed = "Report dismissed - no violation found"

	reporterDeletedMsg   = "The message you reported has been removed. Thank you for helping keep the community safe."
	reporterDismissedMsg = "Your report has been reviewed. No violation was found."
	reporterGoneMsg      = "Your report has been reviewed. The message had already been removed."
)

// MessageLookup finds a chat message the user is allowed to see
type MessageLookup interface {
	VisibleMessage(ctx context.Context, userID, messageID int64) (*chat.Message, error)
}

// Notifier delivers in-app notifications
type Notifier interface {
	Create(ctx context.Context, userID int64, message, link string)
}

// ActivityLogger records user and admin activity
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID int64, action, details string)
	LogAdminAction(ctx context.Context, adminID int64, action, details string)
}

// AdminLister lists admins to alert about new reports
type AdminLister interface {
	ListAdminIDs(ctx context.Context) ([]int64, error)
}

// PointsAwarder rewards reporters whose report was upheld
type PointsAwarder interface {
	AwardForAction(ctx context.Context, userID int64, action string) (*points.Account, error)
}

// Deps are the optional collaborators of Service. Nil fields are skipped.
type Deps struct {
	Notifier Notifier
	Activity ActivityLogger
	Admins   AdminLister
	Points   PointsAwarder
	Evidence storage.Storage
}

// Service handles message reports
type Service struct {
	repo     Repository
	messages MessageLookup
	deps     Deps
}

// NewService creates moderation service
func NewService(repo Repository, messages MessageLookup, deps Deps) *Service {
	return &Service{repo: repo, messages: messages, deps: deps}
}

// ReportMessage files a pending report against a message the reporter can see
func (s *Service) ReportMessage(ctx context.Context, reporterID, messageID int64, reason string) (*Report, error) {
	reason = text.Sanitize(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	msg, err := s.messages.VisibleMessage(ctx, reporterID, messageID)
	if err != nil {
		if errors.Is(err, chat.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	dup, err := s.repo.HasPending(ctx, messageID, reporterID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrAlreadyReported
	}

	id, err := s.repo.Create(ctx, messageID, reporterID, reason)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	logger.FromContext(ctx).Info().
		Int64("report_id", id).
		Int64("message_id", messageID).
		Int64("reporter_id", reporterID).
		Msg("Message reported")

	if s.deps.Activity != nil {
		s.deps.Activity.LogActivity(ctx, reporterID, "report_message", fmt.Sprintf("Reported message %d in room %d", messageID, msg.RoomID))
	}
	s.alertAdmins(ctx, id)

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	return report, nil
}

// ResolveReport closes a pending report. delete_message removes the message
// in the same transaction; side effects run only after commit.
func (s *Service) ResolveReport(ctx context.Context, adminID, reportID int64, action Action) (*Report, error) {
	note, reply := noteDismissed, reporterDismissedMsg
	switch action {
	case ActionDeleteMessage:
		note, reply = noteDeleted, reporterDeletedMsg
	case ActionDismiss:
	default:
		return nil, ErrInvalidAction
	}

	report, removed, err := s.repo.Resolve(ctx, reportID, adminID, action, note)
	if err != nil {
		return nil, err
	}
	upheld := action == ActionDeleteMessage && removed
	// another report on the same message got there first
	if action == ActionDeleteMessage && !removed {
		reply = reporterGoneMsg
	}

	logger.FromContext(ctx).Info().
		Int64("report_id", reportID).
		Int64("admin_id", adminID).
		Str("action", string(action)).
		Bool("message_removed", removed).
		Msg("Report resolved")

	if s.deps.Notifier != nil {
		s.deps.Notifier.Create(ctx, report.ReporterID, reply, "/chat")
	}
	if s.deps.Activity != nil {
		s.deps.Activity.LogAdminAction(ctx, adminID, "resolve_report",
			fmt.Sprintf("Report %d on message %d: %s", reportID, report.MessageID, action))
	}
	errorhandler.BestEffort(ctx, "moderation.archive_evidence", s.archive(ctx, report, action))
	if upheld && s.deps.Points != nil {
		_, err := s.deps.Points.AwardForAction(ctx, report.ReporterID, points.ActionReportUpheld)
		errorhandler.BestEffort(ctx, "moderation.award_reporter", err)
	}

	return report, nil
}

// ListReports returns reports for the admin queue, pending first
func (s *Service) ListReports(ctx context.Context, filter ListFilter) ([]Report, int, error) {
	if filter.Status != "" && filter.Status != ReportStatusPending && filter.Status != ReportStatusResolved {
		return nil, 0, ErrInvalidStatus
	}
	filter.normalize()
	return s.repo.List(ctx, filter)
}

// GetReport returns a single report. EvidenceArchived is filled in for
// resolved reports when an evidence store is configured.
func (s *Service) GetReport(ctx context.Context, id int64) (*Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}
	if !report.IsPending() && s.deps.Evidence != nil {
		ok, err := s.deps.Evidence.Exists(ctx, EvidenceKey(id))
		errorhandler.BestEffort(ctx, "moderation.evidence_exists", err)
		report.EvidenceArchived = ok
	}
	return report, nil
}

// OpenEvidence returns the archived evidence JSON of a resolved report.
// The caller closes the reader.
func (s *Service) OpenEvidence(ctx context.Context, id int64) (io.ReadCloser, error) {
	if s.deps.Evidence == nil {
		return nil, ErrEvidenceNotFound
	}
	rc, err := s.deps.Evidence.Get(ctx, EvidenceKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrEvidenceNotFound
	}
	return rc, err
}

func (s *Service) alertAdmins(ctx context.Context, reportID int64) {
	if s.deps.Admins == nil || s.deps.Notifier == nil {
		return
	}
	ids, err := s.deps.Admins.ListAdminIDs(ctx)
	if err != nil {
		errorhandler.BestEffort(ctx, "moderation.list_admins", err)
		return
	}
	link := fmt.Sprintf("/admin/reports/%d", reportID)
	for _, id := range ids {
		s.deps.Notifier.Create(ctx, id, "A chat message was reported and needs review.", link)
	}
}

func (s *Service) archive(ctx context.Context, report *Report, action Action) error {
	if s.deps.Evidence == nil {
		return nil
	}

	ev := Evidence{
		ReportID:    report.ID,
		MessageID:   report.MessageID,
		RoomID:      report.RoomID,
		SenderID:    report.SenderID,
		MessageText: report.MessageText,
		ReporterID:  report.ReporterID,
		Reason:      report.Reason,
		ReportedAt:  report.ReportedAt,
		Action:      action,
	}
	if report.ResolvedBy != nil {
		ev.ResolvedBy = *report.ResolvedBy
	}
	if report.ResolvedAt != nil {
		ev.ResolvedAt = *report.ResolvedAt
	} else {
		ev.ResolvedAt = time.Now()
	}
	if report.ResolutionNotes != nil {
		ev.Notes = *report.ResolutionNotes
	}

	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return err
	}
	return s.deps.Evidence.Put(ctx, EvidenceKey(report.ID), bytes.NewReader(data), "application/json")
}

// EvidenceKey is the storage key of a resolved report's archive
func EvidenceKey(reportID int64) string {
	return fmt.Sprintf("reports/%d.json", reportID)
}
