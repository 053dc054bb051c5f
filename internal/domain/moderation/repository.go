package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database"
)

const queryTimeout = 5 * time.Second

// reportSelect reads a report with live message data as fallback for the snapshot
const reportSelect = `
	SELECT r.id, r.message_id, r.reporter_id,
	       COALESCE(TRIM(ru.first_name || ' ' || ru.last_name), '') AS reporter_name,
	       r.reason, r.reported_at, r.status, r.resolved_by, r.resolved_at,
	       r.resolution_notes, r.action,
	       COALESCE(r.message_text, m.message) AS message_text,
	       COALESCE(r.room_id, m.room_id) AS room_id,
	       COALESCE(r.sender_id, m.user_id) AS sender_id,
	       COALESCE(TRIM(su.first_name || ' ' || su.last_name), '') AS sender_name,
	       (m.id IS NULL) AS message_deleted
	FROM message_reports r
	LEFT JOIN users ru ON ru.id = r.reporter_id
	LEFT JOIN chat_messages m ON m.id = r.message_id
	LEFT JOIN users su ON su.id = COALESCE(r.sender_id, m.user_id)`

// Repository defines report persistence
type Repository interface {
	Create(ctx context.Context, messageID, reporterID int64, reason string) (int64, error)
	HasPending(ctx context.Context, messageID, reporterID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context, filter ListFilter) ([]Report, int, error)
	// Resolve closes a pending report. removed is true only when this call
	// deleted the message; it is false for dismissals and for messages that
	// were already gone.
	Resolve(ctx context.Context, reportID, adminID int64, action Action, notes string) (report *Report, removed bool, err error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates moderation repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, messageID, reporterID int64, reason string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO message_reports (message_id, reporter_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id
	`, messageID, reporterID, reason)
	return id, err
}

func (r *repository) HasPending(ctx context.Context, messageID, reporterID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM message_reports
			WHERE message_id = $1 AND reporter_id = $2 AND status = 'pending'
		)
	`, messageID, reporterID)
	return exists, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Report, error) {
	var report Report
	err := r.db.GetContext(ctx, &report, reportSelect+` WHERE r.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Report, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	f := database.NewFilter().
		AddIf(filter.Status != "", "r.status = ?", string(filter.Status)).
		AddIf(filter.RoomID > 0, "COALESCE(r.room_id, m.room_id) = ?", filter.RoomID).
		AddIf(filter.ReporterID > 0, "r.reporter_id = ?", filter.ReporterID)
	if filter.From != nil {
		f.Add("r.reported_at >= ?", *filter.From)
	}
	if filter.To != nil {
		f.Add("r.reported_at <= ?", *filter.To)
	}

	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM message_reports r
		LEFT JOIN chat_messages m ON m.id = r.message_id`+f.Where(), f.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	page, args := f.Page(filter.Limit, (filter.Page-1)*filter.Limit)
	reports := make([]Report, 0)
	// pending first, then newest
	query := reportSelect + f.Where() + ` ORDER BY (r.status = 'pending') DESC, r.reported_at DESC, r.id DESC` + page
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}

// Resolve locks the report, snapshots the message, marks the report resolved
// and deletes the message for ActionDeleteMessage, all in one transaction.
func (r *repository) Resolve(ctx context.Context, reportID, adminID int64, action Action, notes string) (*Report, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var status ReportStatus
	err = tx.GetContext(ctx, &status, `SELECT status FROM message_reports WHERE id = $1 FOR UPDATE`, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrReportNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("lock report: %w", err)
	}
	if status != ReportStatusPending {
		return nil, false, ErrAlreadyResolved
	}

	// snapshot whatever is still there; the message may be gone already
	_, err = tx.ExecContext(ctx, `
		UPDATE message_reports r
		SET status = 'resolved',
		    resolved_by = $2,
		    resolved_at = NOW(),
		    resolution_notes = $3,
		    action = $4,
		    message_text = COALESCE(r.message_text, (SELECT m.message FROM chat_messages m WHERE m.id = r.message_id)),
		    room_id = COALESCE(r.room_id, (SELECT m.room_id FROM chat_messages m WHERE m.id = r.message_id)),
		    sender_id = COALESCE(r.sender_id, (SELECT m.user_id FROM chat_messages m WHERE m.id = r.message_id))
		WHERE r.id = $1
	`, reportID, adminID, notes, string(action))
	if err != nil {
		return nil, false, fmt.Errorf("resolve report: %w", err)
	}

	removed := false
	if action == ActionDeleteMessage {
		// other reports on the same message keep a copy once it is gone
		_, err = tx.ExecContext(ctx, `
			UPDATE message_reports r
			SET message_text = COALESCE(r.message_text, m.message),
			    room_id = COALESCE(r.room_id, m.room_id),
			    sender_id = COALESCE(r.sender_id, m.user_id)
			FROM chat_messages m
			WHERE m.id = r.message_id
			  AND r.message_id = (SELECT message_id FROM message_reports WHERE id = $1)
			  AND r.id <> $1
		`, reportID)
		if err != nil {
			return nil, false, fmt.Errorf("snapshot sibling reports: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM chat_messages WHERE id = (SELECT message_id FROM message_reports WHERE id = $1)
		`, reportID)
		if err != nil {
			return nil, false, fmt.Errorf("delete message: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, false, fmt.Errorf("delete message: %w", err)
		}
		removed = n > 0
	}

	var report Report
	if err := tx.GetContext(ctx, &report, reportSelect+` WHERE r.id = $1`, reportID); err != nil {
		return nil, false, fmt.Errorf("reload report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit tx: %w", err)
	}
	return &report, removed, nil
}
