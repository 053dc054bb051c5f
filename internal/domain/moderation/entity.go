package moderation

import "time"

// ReportStatus represents the status of a report
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusResolved ReportStatus = "resolved"
)

// Action is what an admin did when resolving a report
type Action string

const (
	ActionDeleteMessage Action = "delete_message"
	ActionDismiss       Action = "dismiss"
)

// Report is a user's complaint about a chat message.
// MessageText, RoomID and SenderID are snapshotted at resolution so they
// survive deletion of the message; before that they come from the live row.
type Report struct {
	ID              int64        `db:"id" json:"id"`
	MessageID       int64        `db:"message_id" json:"message_id"`
	ReporterID      int64        `db:"reporter_id" json:"reporter_id"`
	ReporterName    string       `db:"reporter_name" json:"reporter_name"`
	Reason          string       `db:"reason" json:"reason"`
	ReportedAt      time.Time    `db:"reported_at" json:"reported_at"`
	Status          ReportStatus `db:"status" json:"status"`
	ResolvedBy      *int64       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time   `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNotes *string      `db:"resolution_notes" json:"resolution_notes,omitempty"`
	Action          *string      `db:"action" json:"action,omitempty"`
	MessageText     *string      `db:"message_text" json:"message_text"`
	RoomID          *int64       `db:"room_id" json:"room_id"`
	SenderID        *int64       `db:"sender_id" json:"sender_id"`
	SenderName      string       `db:"sender_name" json:"sender_name"`
	MessageDeleted  bool         `db:"message_deleted" json:"message_deleted"`

	EvidenceArchived bool `db:"-" json:"evidence_archived,omitempty"`
}

// IsPending reports whether an admin still has to act on the report
func (r *Report) IsPending() bool {
	return r.Status == ReportStatusPending
}

// ListFilter narrows the admin report list. Zero values are ignored.
type ListFilter struct {
	Status     ReportStatus
	RoomID     int64
	ReporterID int64
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// Evidence is the archived record of a resolved report
type Evidence struct {
	ReportID    int64     `json:"report_id"`
	MessageID   int64     `json:"message_id"`
	RoomID      *int64    `json:"room_id"`
	SenderID    *int64    `json:"sender_id"`
	MessageText *string   `json:"message_text"`
	ReporterID  int64     `json:"reporter_id"`
	Reason      string    `json:"reason"`
	ReportedAt  time.Time `json:"reported_at"`
	ResolvedBy  int64     `json:"resolved_by"`
	ResolvedAt  time.Time `json:"resolved_at"`
	Action      Action    `json:"action"`
	Notes       string    `json:"notes"`
}
