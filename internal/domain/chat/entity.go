package chat

import "time"

// RoomType represents who can see a room
type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeGroup   RoomType = "group"
)

// Room is a chat room. Public rooms are visible to everyone, the others only
// to their members.
type Room struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Type        RoomType  `db:"type" json:"type"`
	CreatedBy   *int64    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// IsInvitable reports whether members join this room by invite code
func (r *Room) IsInvitable() bool {
	return r.Type == RoomTypePrivate || r.Type == RoomTypeGroup
}

// RoomSummary is a room in the room list
type RoomSummary struct {
	Room
	CreatorName  string `db:"creator_name" json:"creator_name"`
	MemberCount  int    `db:"member_count" json:"member_count"`
	MessageCount int    `db:"message_count" json:"message_count"`
	IsMember     bool   `db:"is_member" json:"is_member"`
}

// Member is a room member with display fields
type Member struct {
	UserID       int64     `db:"user_id" json:"user_id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	ProfileImage string    `db:"profile_image" json:"profile_image"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}

// Message is a chat message joined with its sender
type Message struct {
	ID           int64     `db:"id" json:"id"`
	RoomID       int64     `db:"room_id" json:"room_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Message      string    `db:"message" json:"message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	ProfileImage string    `db:"profile_image" json:"profile_image"`
}
