package points

import "errors"

var (
	// ErrUserNotFound is returned when the user row does not exist
	ErrUserNotFound = errors.New("user not found")

	ErrInternal = errors.New("internal error")
)
