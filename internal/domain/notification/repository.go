package notification

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, userID int64, message, link string) (int64, error)
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, int, error)
	CountUnreadByUser(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, userID, id int64) (bool, error)
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID int64, message, link string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO notifications (user_id, message, link)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, message, link)
	return id, err
}

func (r *repository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	where := `WHERE user_id = $1`
	if unreadOnly {
		where += ` AND NOT is_read`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications `+where, userID); err != nil {
		return nil, 0, err
	}

	notifications := []*Notification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return notifications, total, err
}

func (r *repository) CountUnreadByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID)
	return count, err
}

// MarkAsRead reports false when the notification does not belong to userID
func (r *repository) MarkAsRead(ctx context.Context, userID, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
