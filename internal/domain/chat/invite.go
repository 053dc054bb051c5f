package chat

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const nonceLen = 16

// NewInviteCode returns "<random-hex>-<room id>"
func NewInviteCode(roomID int64) string {
	nonce := uuid.New()
	return hex.EncodeToString(nonce[:nonceLen/2]) + "-" + strconv.FormatInt(roomID, 10)
}

// ParseInviteCode extracts the room id. Only the format is checked here;
// the nonce is not stored, so any well-formed code for a room is accepted.
func ParseInviteCode(code string) (int64, error) {
	code = strings.TrimSpace(code)
	i := strings.LastIndexByte(code, '-')
	if i <= 0 || i == len(code)-1 {
		return 0, ErrInvalidInviteCode
	}

	if _, err := hex.DecodeString(code[:i]); err != nil {
		return 0, ErrInvalidInviteCode
	}

	roomID, err := strconv.ParseInt(code[i+1:], 10, 64)
	if err != nil || roomID <= 0 {
		return 0, ErrInvalidInviteCode
	}
	return roomID, nil
}
