package activity

import (
	"context"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
)

// Service writes the user activity and admin audit trails.
// Write failures are logged and swallowed so callers never fail on audit.
type Service struct {
	repo Repository
}

// NewService creates activity service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LogActivity appends a user activity entry
func (s *Service) LogActivity(ctx context.Context, userID int64, action, details string) {
	s.write(ctx, KindUser, userID, action, details)
}

// LogAdminAction appends an admin audit entry
func (s *Service) LogAdminAction(ctx context.Context, adminID int64, action, details string) {
	s.write(ctx, KindAdmin, adminID, action, details)
}

func (s *Service) write(ctx context.Context, kind Kind, actorID int64, action, details string) {
	if err := s.repo.Create(ctx, kind, actorID, action, details); err != nil {
		logger.FromContext(ctx).Error().
			Err(err).
			Str("kind", string(kind)).
			Int64("actor_id", actorID).
			Str("action", action).
			Msg("Failed to write audit log")
	}
}

// List returns a page of audit entries and the total count
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	return s.repo.List(ctx, filter)
}
