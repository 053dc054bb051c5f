package notification

import (
	"context"
	"errors"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
)

// ErrNotificationNotFound is returned when marking someone else's or a missing notification
var ErrNotificationNotFound = errors.New("notification not found")

// Service handles notification logic
type Service struct {
	repo Repository
}

// NewService creates notification service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a notification for userID. Failures are logged, never returned:
// callers notify as a side effect of work that already succeeded.
func (s *Service) Create(ctx context.Context, userID int64, message, link string) {
	id, err := s.repo.Create(ctx, userID, message, link)
	if err != nil {
		logger.FromContext(ctx).Error().
			Err(err).
			Int64("recipient_id", userID).
			Msg("Failed to create notification")
		return
	}
	logger.FromContext(ctx).Debug().
		Int64("notification_id", id).
		Int64("recipient_id", userID).
		Msg("Notification created")
}

// List returns a page of notifications for user
func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, page, limit int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, (page-1)*limit)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks a single notification owned by userID as read
func (s *Service) MarkAsRead(ctx context.Context, userID, id int64) error {
	ok, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
