package points

import "time"

// Account is a user's running points total
type Account struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	Points      int       `db:"points" json:"points"`
	Level       int       `db:"level" json:"level"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
}

// HistoryEntry is one ledger row
type HistoryEntry struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Points      int       `db:"points" json:"points"`
	Action      string    `db:"action" json:"action"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LeaderboardEntry is one ranked account with the owner's display fields
type LeaderboardEntry struct {
	Rank         int    `db:"-" json:"rank"`
	UserID       int64  `db:"user_id" json:"user_id"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	ProfileImage string `db:"profile_image" json:"profile_image"`
	Points       int    `db:"points" json:"points"`
	Level        int    `db:"level" json:"level"`
}

// Point-earning actions
const (
	ActionChatMessage  = "chat_message"
	ActionRoomCreate   = "room_create"
	ActionReportUpheld = "report_upheld"
	ActionAdminAdjust  = "admin_adjust"
)

// defaultAwards apply when system_settings has no "points.<action>" row
var defaultAwards = map[string]int{
	ActionChatMessage:  1,
	ActionRoomCreate:   5,
	ActionReportUpheld: 5,
}

var actionDescriptions = map[string]string{
	ActionChatMessage:  "Posted a chat message",
	ActionRoomCreate:   "Created a chat room",
	ActionReportUpheld: "Reported a message that was removed",
}

// levelThresholds[i] is the minimum total for level i+2
var levelThresholds = []int{100, 500, 1000, 5000}

// LevelFor maps a points total to a level from 1 to 5
func LevelFor(points int) int {
	level := 1
	for _, min := range levelThresholds {
		if points < min {
			break
		}
		level++
	}
	return level
}

// NextLevelAt returns the total needed for the next level, 0 at max level
func NextLevelAt(points int) int {
	for _, min := range levelThresholds {
		if points < min {
			return min
		}
	}
	return 0
}
