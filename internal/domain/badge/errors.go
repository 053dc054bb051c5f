package badge

import "errors"

var (
	ErrBadgeNotFound  = errors.New("badge not found")
	ErrBadgeNameTaken = errors.New("badge name already exists")
	ErrNoStorage      = errors.New("icon storage is not configured")
)
