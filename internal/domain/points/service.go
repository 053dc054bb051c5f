package points

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
)

const leaderboardTTL = 30 * time.Second

// BadgeChecker grants badges the new total qualifies for
type BadgeChecker interface {
	CheckAndAwardBadges(ctx context.Context, userID int64, currentPoints int) (int, error)
}

// SettingsReader reads runtime integer settings
type SettingsReader interface {
	GetInt(ctx context.Context, key string, def int) int
}

// AuditLogger records admin actions
type AuditLogger interface {
	LogAdminAction(ctx context.Context, adminID int64, action, details string)
}

// Service handles points business logic
type Service struct {
	repo     Repository
	badges   BadgeChecker
	settings SettingsReader
	audit    AuditLogger
	redis    *redis.Client // nil if Redis disabled
}

// NewService creates points service. badges, settings, audit and redis may be nil.
func NewService(repo Repository, badges BadgeChecker, settings SettingsReader, audit AuditLogger, redis *redis.Client) *Service {
	return &Service{
		repo:     repo,
		badges:   badges,
		settings: settings,
		audit:    audit,
		redis:    redis,
	}
}

// AwardPoints adds delta (any sign, zero included) to userID's account,
// appends one history row and then checks badges against the new total.
// Badge failures are logged and do not fail the award.
func (s *Service) AwardPoints(ctx context.Context, userID int64, delta int, action, description string) (*Account, error) {
	acc, err := s.repo.Award(ctx, userID, delta, action, description)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug().
		Int64("user_id", userID).
		Int("delta", delta).
		Int("total", acc.Points).
		Int("level", acc.Level).
		Str("action", action).
		Msg("Points awarded")

	if s.badges != nil {
		if _, err := s.badges.CheckAndAwardBadges(ctx, userID, acc.Points); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Badge check failed")
		}
	}

	return acc, nil
}

// AwardForAction awards the configured amount for action. The amount is read
// from "points.<action>" at call time; zero disables the award and returns nil.
func (s *Service) AwardForAction(ctx context.Context, userID int64, action string) (*Account, error) {
	delta := defaultAwards[action]
	if s.settings != nil {
		delta = s.settings.GetInt(ctx, "points."+action, delta)
	}
	if delta == 0 {
		return nil, nil
	}

	description := actionDescriptions[action]
	return s.AwardPoints(ctx, userID, delta, action, description)
}

// Adjust is a manual award or deduction by an admin
func (s *Service) Adjust(ctx context.Context, adminID, userID int64, delta int, reason string) (*Account, error) {
	acc, err := s.AwardPoints(ctx, userID, delta, ActionAdminAdjust, reason)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminID, "adjust_points",
			fmt.Sprintf("user %d: %+d (%s), total %d", userID, delta, reason, acc.Points))
	}
	return acc, nil
}

// GetAccount returns the account, or a zero account at level 1 when the user
// has not earned anything yet.
func (s *Service) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	acc, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return &Account{UserID: userID, Level: LevelFor(0)}, nil
	}
	return acc, nil
}

// ListHistory returns a page of the user's ledger
func (s *Service) ListHistory(ctx context.Context, userID int64, page, limit int) ([]HistoryEntry, int, error) {
	return s.repo.ListHistory(ctx, userID, limit, (page-1)*limit)
}

// Leaderboard returns the top accounts. With Redis the result is cached briefly.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	key := fmt.Sprintf("leaderboard:top:%d", limit)

	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var cached []LeaderboardEntry
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			logger.FromContext(ctx).Warn().Err(err).Msg("Leaderboard cache read failed")
		}
	}

	entries, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.redis.Set(ctx, key, raw, leaderboardTTL).Err(); err != nil {
				logger.FromContext(ctx).Warn().Err(err).Msg("Leaderboard cache write failed")
			}
		}
	}
	return entries, nil
}
