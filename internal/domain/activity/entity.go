package activity

import "time"

// Kind selects the audit table
type Kind string

const (
	KindUser  Kind = "user"
	KindAdmin Kind = "admin"
)

// Entry is one audit row. ActorID is user_id for user activity and
// admin_id for admin actions.
type Entry struct {
	ID        int64     `db:"id" json:"id"`
	ActorID   *int64    `db:"actor_id" json:"actor_id"`
	ActorName string    `db:"actor_name" json:"actor_name"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Kind    Kind
	ActorID int64
	Action  string
	From    *time.Time
	To      *time.Time
	Page    int
	Limit   int
}

func (f *Filter) normalize() {
	if f.Kind != KindAdmin {
		f.Kind = KindUser
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
}
