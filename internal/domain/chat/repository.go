package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 5 * time.Second

// visibleTo restricts alias r to rooms the user in $1 may see
const visibleTo = `(r.type = 'public' OR EXISTS (
	SELECT 1 FROM chat_room_members vm WHERE vm.room_id = r.id AND vm.user_id = $1))`

const messageColumns = `
	m.id, m.room_id, m.user_id, m.message, m.created_at,
	u.first_name, u.last_name, u.profile_image`

// Repository defines chat data access interface
type Repository interface {
	// Room operations
	CreateRoom(ctx context.Context, room *Room) error
	GetRoomByID(ctx context.Context, id int64) (*Room, error)
	GetVisibleRoom(ctx context.Context, userID, roomID int64) (*Room, error)
	ListVisibleRooms(ctx context.Context, userID int64) ([]RoomSummary, error)

	// Member operations
	AddMember(ctx context.Context, roomID, userID int64) (bool, error)
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
	ListMembers(ctx context.Context, roomID int64) ([]Member, error)

	// Message operations
	CreateMessage(ctx context.Context, roomID, userID int64, text string) (int64, error)
	GetVisibleMessage(ctx context.Context, userID, messageID int64) (*Message, error)
	ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]Message, int, error)
	ListMessagesSince(ctx context.Context, roomID, afterID int64, limit int) ([]Message, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new chat repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateRoom inserts the room and the creator's membership in one transaction
func (r *repository) CreateRoom(ctx context.Context, room *Room) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO chat_rooms (name, description, type, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, room.Name, room.Description, room.Type, room.CreatedBy).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	if room.CreatedBy != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chat_room_members (room_id, user_id) VALUES ($1, $2)
		`, room.ID, *room.CreatedBy)
		if err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetRoomByID(ctx context.Context, id int64) (*Room, error) {
	var room Room
	err := r.db.GetContext(ctx, &room, `
		SELECT id, name, description, type, created_by, created_at FROM chat_rooms WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *repository) GetVisibleRoom(ctx context.Context, userID, roomID int64) (*Room, error) {
	var room Room
	err := r.db.GetContext(ctx, &room, `
		SELECT r.id, r.name, r.description, r.type, r.created_by, r.created_at
		FROM chat_rooms r
		WHERE r.id = $2 AND `+visibleTo, userID, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *repository) ListVisibleRooms(ctx context.Context, userID int64) ([]RoomSummary, error) {
	rooms := make([]RoomSummary, 0)
	err := r.db.SelectContext(ctx, &rooms, `
		SELECT r.id, r.name, r.description, r.type, r.created_by, r.created_at,
		       COALESCE(TRIM(u.first_name || ' ' || u.last_name), '') AS creator_name,
		       (SELECT COUNT(*) FROM chat_room_members cm WHERE cm.room_id = r.id) AS member_count,
		       (SELECT COUNT(*) FROM chat_messages msg WHERE msg.room_id = r.id) AS message_count,
		       EXISTS (SELECT 1 FROM chat_room_members me WHERE me.room_id = r.id AND me.user_id = $1) AS is_member
		FROM chat_rooms r
		LEFT JOIN users u ON u.id = r.created_by
		WHERE `+visibleTo+`
		ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	return rooms, err
}

// AddMember reports false when the user was already a member
func (r *repository) AddMember(ctx context.Context, roomID, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_room_members (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, user_id) DO NOTHING
	`, roomID, userID)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *repository) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM chat_room_members WHERE room_id = $1 AND user_id = $2)
	`, roomID, userID)
	return exists, err
}

func (r *repository) ListMembers(ctx context.Context, roomID int64) ([]Member, error) {
	members := make([]Member, 0)
	err := r.db.SelectContext(ctx, &members, `
		SELECT m.user_id, u.first_name, u.last_name, u.profile_image, m.joined_at
		FROM chat_room_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.joined_at ASC, m.id ASC
	`, roomID)
	return members, err
}

func (r *repository) CreateMessage(ctx context.Context, roomID, userID int64, text string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO chat_messages (room_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id
	`, roomID, userID, text)
	return id, err
}

func (r *repository) GetVisibleMessage(ctx context.Context, userID, messageID int64) (*Message, error) {
	var msg Message
	err := r.db.GetContext(ctx, &msg, `
		SELECT `+messageColumns+`
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		JOIN chat_rooms r ON r.id = m.room_id
		WHERE m.id = $2 AND `+visibleTo, userID, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns a page newest first plus the room's total message count
func (r *repository) ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]Message, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM chat_messages WHERE room_id = $1`, roomID); err != nil {
		return nil, 0, err
	}

	messages := make([]Message, 0)
	err := r.db.SelectContext(ctx, &messages, `
		SELECT `+messageColumns+`
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	return messages, total, err
}

// ListMessagesSince returns messages with id > afterID, newest first
func (r *repository) ListMessagesSince(ctx context.Context, roomID, afterID int64, limit int) ([]Message, error) {
	messages := make([]Message, 0)
	err := r.db.SelectContext(ctx, &messages, `
		SELECT `+messageColumns+`
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1 AND m.id > $2
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3
	`, roomID, afterID, limit)
	return messages, err
}
