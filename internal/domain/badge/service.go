package badge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/storage"
)

// Notifier delivers in-app notifications
type Notifier interface {
	Create(ctx context.Context, userID int64, message, link string)
}

// ActivityLogger records user and admin activity
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID int64, action, details string)
	LogAdminAction(ctx context.Context, adminID int64, action, details string)
}

// IconProcessor turns an uploaded image into the stored icon
type IconProcessor interface {
	Icon(data []byte) ([]byte, error)
}

// Service handles badge catalog and awarding
type Service struct {
	repo     Repository
	notifier Notifier
	activity ActivityLogger
	storage  storage.Storage
	icons    IconProcessor
}

// NewService creates badge service. storage and icons may be nil when icon
// upload is not configured.
func NewService(repo Repository, notifier Notifier, activity ActivityLogger, store storage.Storage, icons IconProcessor) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		activity: activity,
		storage:  store,
		icons:    icons,
	}
}

// CheckAndAwardBadges grants every badge currentPoints unlocks that the user
// does not hold yet. A failed grant is logged and the rest are still tried.
// Badges are never revoked. Returns the number of new grants.
func (s *Service) CheckAndAwardBadges(ctx context.Context, userID int64, currentPoints int) (int, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load badge catalog: %w", err)
	}
	earned, err := s.repo.EarnedIDs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load earned badges: %w", err)
	}

	awarded := 0
	for _, b := range Qualifying(currentPoints, earned, catalog) {
		granted, err := s.repo.Grant(ctx, userID, b.ID)
		if err != nil {
			logger.FromContext(ctx).Error().
				Err(err).
				Int64("user_id", userID).
				Int64("badge_id", b.ID).
				Msg("Failed to grant badge")
			continue
		}
		if !granted {
			continue
		}
		awarded++

		logger.FromContext(ctx).Info().
			Int64("user_id", userID).
			Str("badge", b.Name).
			Msg("Badge earned")

		if s.notifier != nil {
			s.notifier.Create(ctx, userID, fmt.Sprintf("Congratulations! You earned the '%s' badge.", b.Name), "/badges")
		}
		if s.activity != nil {
			s.activity.LogActivity(ctx, userID, "badge_earned", "Earned badge: "+b.Name)
		}
	}
	return awarded, nil
}

// List returns the badge catalog
func (s *Service) List(ctx context.Context) ([]Badge, error) {
	return s.repo.List(ctx)
}

// ListUserBadges returns badges held by userID, newest first
func (s *Service) ListUserBadges(ctx context.Context, userID int64) ([]EarnedBadge, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create adds a catalog entry
func (s *Service) Create(ctx context.Context, adminID int64, req *CreateBadgeRequest) (*Badge, error) {
	b := &Badge{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		PointsRequired: req.PointsRequired,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, "create_badge", fmt.Sprintf("badge %d %q at %d points", b.ID, b.Name, b.PointsRequired))
	return b, nil
}

// Update changes name, description or threshold. Existing grants are kept.
func (s *Service) Update(ctx context.Context, adminID, id int64, req *UpdateBadgeRequest) (*Badge, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBadgeNotFound
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		b.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		b.Description = strings.TrimSpace(*req.Description)
	}
	if req.PointsRequired != nil {
		b.PointsRequired = *req.PointsRequired
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, "update_badge", fmt.Sprintf("badge %d %q at %d points", b.ID, b.Name, b.PointsRequired))
	return b, nil
}

// Delete removes a badge and all grants of it. The stored icon is removed
// best-effort; a storage failure leaves an orphaned object, not a badge.
func (s *Service) Delete(ctx context.Context, adminID, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadgeNotFound
	}
	if s.storage != nil {
		errorhandler.BestEffort(ctx, "badge.delete_icon", s.storage.Delete(ctx, IconKey(id)))
	}
	s.audit(ctx, adminID, "delete_badge", fmt.Sprintf("badge %d", id))
	return nil
}

// UploadIcon validates the image, renders it as a square PNG, stores it and
// points the badge at the stored URL.
func (s *Service) UploadIcon(ctx context.Context, adminID, id int64, file io.Reader) (*Badge, error) {
	if s.storage == nil || s.icons == nil {
		return nil, ErrNoStorage
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBadgeNotFound
	}

	data, _, err := storage.ReadImage(file, storage.MaxIconSize)
	if err != nil {
		return nil, err
	}
	icon, err := s.icons.Icon(data)
	if err != nil {
		return nil, err
	}

	key := IconKey(id)
	if err := s.storage.Put(ctx, key, bytes.NewReader(icon), "image/png"); err != nil {
		return nil, fmt.Errorf("store icon: %w", err)
	}

	// the key is reused, so the version query makes clients refetch
	b.Icon = fmt.Sprintf("%s?v=%d", s.storage.GetURL(key), time.Now().Unix())
	if err := s.repo.SetIcon(ctx, id, b.Icon); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, "upload_badge_icon", fmt.Sprintf("badge %d", id))
	return b, nil
}

func (s *Service) audit(ctx context.Context, adminID int64, action, details string) {
	if s.activity != nil {
		s.activity.LogAdminAction(ctx, adminID, action, details)
	}
}

// IconKey is the storage key of a badge's icon
func IconKey(badgeID int64) string {
	return fmt.Sprintf("badges/%d.png", badgeID)
}
