package chat

import "errors"

var (
	// ErrRoomNotFound covers both missing rooms and rooms hidden from the caller
	ErrRoomNotFound      = errors.New("chat room not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrEmptyMessage      = errors.New("message cannot be empty")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrPublicRoomInvite  = errors.New("public rooms do not use invite codes")
	ErrRateLimited       = errors.New("too many messages, slow down")
)
