package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/polyeduhub/polyeduhub-api/internal/domain/points"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/text"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/validator"
)

const (
	// HistoryPageSize is the number of messages per history page
	HistoryPageSize = 50
	// PollCap bounds a single poll response
	PollCap = 50
)

// PointsAwarder grants points for chat activity
type PointsAwarder interface {
	AwardForAction(ctx context.Context, userID int64, action string) (*points.Account, error)
}

// ActivityLogger records user activity
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID int64, action, details string)
}

// Service handles chat business logic
type Service struct {
	repo     Repository
	points   PointsAwarder
	activity ActivityLogger
	limiter  *RateLimiter
	now      func() time.Time
}

// NewService creates chat service. points, activity and limiter may be nil.
func NewService(repo Repository, awarder PointsAwarder, activity ActivityLogger, limiter *RateLimiter) *Service {
	return &Service{
		repo:     repo,
		points:   awarder,
		activity: activity,
		limiter:  limiter,
		now:      time.Now,
	}
}

// CreateRoom validates the request and creates the room with its creator as
// first member. Validation problems come back as messages with a nil error.
func (s *Service) CreateRoom(ctx context.Context, creatorID int64, req *CreateRoomRequest) (int64, []string, error) {
	req.Name = text.Sanitize(req.Name)
	req.Description = text.Sanitize(req.Description)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))

	if errs := validator.Validate(req); errs != nil {
		return 0, validator.Messages(errs), nil
	}

	room := &Room{
		Name:        req.Name,
		Description: req.Description,
		Type:        RoomType(req.Type),
		CreatedBy:   &creatorID,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return 0, nil, err
	}

	logger.FromContext(ctx).Info().
		Int64("room_id", room.ID).
		Str("type", req.Type).
		Msg("Chat room created")

	s.award(ctx, creatorID, points.ActionRoomCreate)
	if s.activity != nil {
		s.activity.LogActivity(ctx, creatorID, "create_room", fmt.Sprintf("Created %s room %q", room.Type, room.Name))
	}
	return room.ID, nil, nil
}

// ListVisibleRooms returns public rooms and rooms the user belongs to, newest first
func (s *Service) ListVisibleRooms(ctx context.Context, userID int64) ([]RoomSummary, error) {
	return s.repo.ListVisibleRooms(ctx, userID)
}

// EnterRoom returns a visible room and makes the user a member if they were not.
// Hidden and missing rooms both yield ErrRoomNotFound.
func (s *Service) EnterRoom(ctx context.Context, userID, roomID int64) (*Room, bool, error) {
	room, err := s.visibleRoom(ctx, userID, roomID)
	if err != nil {
		return nil, false, err
	}

	joined, err := s.repo.AddMember(ctx, roomID, userID)
	if err != nil {
		return nil, false, err
	}
	if joined && s.activity != nil {
		s.activity.LogActivity(ctx, userID, "join_room", fmt.Sprintf("Joined room %d", roomID))
	}
	return room, joined, nil
}

// RoomMembers lists members of a visible room
func (s *Service) RoomMembers(ctx context.Context, userID, roomID int64) ([]Member, error) {
	if _, err := s.visibleRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, roomID)
}

// InviteCode issues a fresh code for a private or group room the user can see
func (s *Service) InviteCode(ctx context.Context, userID, roomID int64) (string, error) {
	room, err := s.visibleRoom(ctx, userID, roomID)
	if err != nil {
		return "", err
	}
	if !room.IsInvitable() {
		return "", ErrPublicRoomInvite
	}
	return NewInviteCode(room.ID), nil
}

// JoinByInviteCode adds the user to the private or group room named by code.
// Joining a room the user already belongs to succeeds without a new row.
func (s *Service) JoinByInviteCode(ctx context.Context, userID int64, code string) (*Room, error) {
	roomID, err := ParseInviteCode(code)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if !room.IsInvitable() {
		return nil, ErrPublicRoomInvite
	}

	member, err := s.repo.IsMember(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return room, nil
	}

	if _, err := s.repo.AddMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.LogActivity(ctx, userID, "join_room", fmt.Sprintf("Joined room %d by invite", roomID))
	}
	return room, nil
}

// PostMessage appends a message to a visible room
func (s *Service) PostMessage(ctx context.Context, userID, roomID int64, body string) (int64, error) {
	body = text.Sanitize(body)
	if body == "" {
		return 0, ErrEmptyMessage
	}

	if _, err := s.visibleRoom(ctx, userID, roomID); err != nil {
		return 0, err
	}

	if !s.limiter.Allow(ctx, userID) {
		return 0, ErrRateLimited
	}

	id, err := s.repo.CreateMessage(ctx, roomID, userID, body)
	if err != nil {
		return 0, err
	}

	s.award(ctx, userID, points.ActionChatMessage)
	return id, nil
}

// FetchHistory returns page (1-based) of a visible room's messages, newest first
func (s *Service) FetchHistory(ctx context.Context, userID, roomID int64, page int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if _, err := s.visibleRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}

	messages, total, err := s.repo.ListMessages(ctx, roomID, HistoryPageSize, (page-1)*HistoryPageSize)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{
		Messages: pollMessages(messages, userID, s.now()),
		Total:    total,
		Page:     page,
		PageSize: HistoryPageSize,
	}, nil
}

// FetchSince returns up to PollCap messages newer than afterID. The batch is
// ordered newest first, so clients merge it by id.
func (s *Service) FetchSince(ctx context.Context, userID, roomID, afterID int64) ([]PollMessage, error) {
	if afterID < 0 {
		afterID = 0
	}
	if _, err := s.visibleRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessagesSince(ctx, roomID, afterID, PollCap)
	if err != nil {
		return nil, err
	}
	return pollMessages(messages, userID, s.now()), nil
}

// VisibleMessage returns a message the user is allowed to see
func (s *Service) VisibleMessage(ctx context.Context, userID, messageID int64) (*Message, error) {
	msg, err := s.repo.GetVisibleMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (s *Service) visibleRoom(ctx context.Context, userID, roomID int64) (*Room, error) {
	room, err := s.repo.GetVisibleRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *Service) award(ctx context.Context, userID int64, action string) {
	if s.points == nil {
		return
	}
	if _, err := s.points.AwardForAction(ctx, userID, action); err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Int64("user_id", userID).
			Str("action", action).
			Msg("Failed to award chat points")
	}
}
