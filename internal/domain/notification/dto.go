package notification

import (
	"time"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/text"
)

// NotificationResponse for API
type NotificationResponse struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
	TimeAgo   string `json:"time_ago"`
}

// NotificationResponseFromEntity converts entity to response
func NotificationResponseFromEntity(n *Notification, now time.Time) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		TimeAgo:   text.TimeAgo(n.CreatedAt, now),
	}
}

// UnreadCountResponse for unread count endpoint
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// MarkAllResponse reports how many notifications changed state
type MarkAllResponse struct {
	Updated int64 `json:"updated"`
}
