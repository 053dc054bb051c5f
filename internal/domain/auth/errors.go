package auth

import (
	"errors"

	"github.com/polyeduhub/polyeduhub-api/internal/domain/user"
)

// Account errors are shared with the user repository so they pass through unchanged.
var (
	ErrEmailAlreadyExists = user.ErrEmailTaken
	ErrUserNotFound       = user.ErrUserNotFound
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidRefreshToken  = errors.New("refresh token is invalid or expired")
	ErrRefreshTokenRequired = errors.New("refresh_token is required")
)
