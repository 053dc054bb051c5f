package chat

import (
	"time"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/text"
)

// CreateRoomRequest for POST /chat/rooms
type CreateRoomRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
	Type        string `json:"type" validate:"required,room_type"`
}

// PostMessageRequest for POST /chat/rooms/{id}/messages
type PostMessageRequest struct {
	Message string `json:"message"`
}

// JoinRequest for POST /chat/join
type JoinRequest struct {
	Code string `json:"code"`
}

// CreatedResponse carries the id of a new room or message
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// InviteResponse for GET /chat/rooms/{id}/invite
type InviteResponse struct {
	Code string `json:"code"`
}

// RoomDetail is what a member sees on entering a room
type RoomDetail struct {
	Room   *Room `json:"room"`
	Joined bool  `json:"joined"`
}

// PollMessage is one message in the poll payload
type PollMessage struct {
	ID           int64  `json:"id"`
	Message      string `json:"message"`
	CreatedAt    string `json:"created_at"`
	UserID       int64  `json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfileImage string `json:"profile_image"`
	IsOwnMessage bool   `json:"is_own_message"`
	TimeAgo      string `json:"time_ago"`
}

// PollResponse is the body of GET /chat/rooms/{id}/poll
type PollResponse struct {
	Success  bool          `json:"success"`
	Messages []PollMessage `json:"messages"`
	Error    string        `json:"error,omitempty"`
}

// HistoryPage is one page of room history
type HistoryPage struct {
	Messages []PollMessage
	Total    int
	Page     int
	PageSize int
}

// Pages returns the page count
func (p *HistoryPage) Pages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// PollMessageFromEntity converts a message for the viewer
func PollMessageFromEntity(m *Message, viewerID int64, now time.Time) PollMessage {
	return PollMessage{
		ID:           m.ID,
		Message:      m.Message,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		UserID:       m.UserID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		ProfileImage: m.ProfileImage,
		IsOwnMessage: m.UserID == viewerID,
		TimeAgo:      text.TimeAgo(m.CreatedAt, now),
	}
}

func pollMessages(messages []Message, viewerID int64, now time.Time) []PollMessage {
	out := make([]PollMessage, len(messages))
	for i := range messages {
		out[i] = PollMessageFromEntity(&messages[i], viewerID, now)
	}
	return out
}
