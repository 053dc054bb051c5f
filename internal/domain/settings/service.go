package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
)

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrInvalidKey      = errors.New("invalid setting key")
)

// AuditLogger records admin changes
type AuditLogger interface {
	LogAdminAction(ctx context.Context, adminID int64, action, details string)
}

// Service reads and writes runtime settings.
// Values are read from the database on every call.
type Service struct {
	repo  Repository
	audit AuditLogger
}

// NewService creates settings service
func NewService(repo Repository, audit AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// GetInt returns the integer value of key, or def when the key is missing,
// unparsable or the lookup fails.
func (s *Service) GetInt(ctx context.Context, key string, def int) int {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Settings lookup failed, using default")
		return def
	}
	if setting == nil {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(setting.Value))
	if err != nil {
		logger.FromContext(ctx).Warn().Str("key", key).Str("value", setting.Value).Msg("Setting is not an integer, using default")
		return def
	}
	return v
}

// Get returns a single setting
func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, ErrSettingNotFound
	}
	return setting, nil
}

// List returns all settings
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

// Set creates or replaces a setting on behalf of adminID
func (s *Service) Set(ctx context.Context, adminID int64, key, value string) (*Setting, error) {
	if !validKey(key) {
		return nil, ErrInvalidKey
	}

	setting, err := s.repo.Upsert(ctx, key, value)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.LogAdminAction(ctx, adminID, "update_setting", fmt.Sprintf("%s = %s", key, value))
	}
	return setting, nil
}

// keys look like "points.chat_message"
func validKey(key string) bool {
	if key == "" || len(key) > 100 {
		return false
	}
	for _, c := range key {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}
