package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyeduhub/polyeduhub-api/internal/domain/points"
)

type memRepo struct {
	mu       sync.Mutex
	rooms    map[int64]*Room
	members  map[int64]map[int64]bool
	messages []Message
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{rooms: map[int64]*Room{}, members: map[int64]map[int64]bool{}}
}

func (m *memRepo) visible(userID int64, room *Room) bool {
	return room.Type == RoomTypePublic || m.members[room.ID][userID]
}

func (m *memRepo) CreateRoom(_ context.Context, room *Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	room.ID = m.nextID
	room.CreatedAt = time.Now()
	cp := *room
	m.rooms[room.ID] = &cp
	m.members[room.ID] = map[int64]bool{*room.CreatedBy: true}
	return nil
}

func (m *memRepo) GetRoomByID(_ context.Context, id int64) (*Room, error) {
	if r, ok := m.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) GetVisibleRoom(_ context.Context, userID, roomID int64) (*Room, error) {
	r, ok := m.rooms[roomID]
	if !ok || !m.visible(userID, r) {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) ListVisibleRooms(_ context.Context, userID int64) ([]RoomSummary, error) {
	out := []RoomSummary{}
	for _, r := range m.rooms {
		if m.visible(userID, r) {
			out = append(out, RoomSummary{Room: *r, MemberCount: len(m.members[r.ID])})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) AddMember(_ context.Context, roomID, userID int64) (bool, error) {
	if m.members[roomID] == nil {
		m.members[roomID] = map[int64]bool{}
	}
	if m.members[roomID][userID] {
		return false, nil
	}
	m.members[roomID][userID] = true
	return true, nil
}

func (m *memRepo) IsMember(_ context.Context, roomID, userID int64) (bool, error) {
	return m.members[roomID][userID], nil
}

func (m *memRepo) ListMembers(_ context.Context, roomID int64) ([]Member, error) {
	out := []Member{}
	for id := range m.members[roomID] {
		out = append(out, Member{UserID: id})
	}
	return out, nil
}

func (m *memRepo) CreateMessage(_ context.Context, roomID, userID int64, text string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.messages = append(m.messages, Message{ID: m.nextID, RoomID: roomID, UserID: userID, Message: text, CreatedAt: time.Now()})
	return m.nextID, nil
}

func (m *memRepo) GetVisibleMessage(_ context.Context, userID, messageID int64) (*Message, error) {
	for _, msg := range m.messages {
		if msg.ID == messageID && m.visible(userID, m.rooms[msg.RoomID]) {
			cp := msg
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) roomMessagesDesc(roomID int64) []Message {
	var out []Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].RoomID == roomID {
			out = append(out, m.messages[i])
		}
	}
	return out
}

func (m *memRepo) ListMessages(_ context.Context, roomID int64, limit, offset int) ([]Message, int, error) {
	all := m.roomMessagesDesc(roomID)
	if offset >= len(all) {
		return []Message{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *memRepo) ListMessagesSince(_ context.Context, roomID, afterID int64, limit int) ([]Message, error) {
	out := []Message{}
	for _, msg := range m.roomMessagesDesc(roomID) {
		if msg.ID > afterID && len(out) < limit {
			out = append(out, msg)
		}
	}
	return out, nil
}

type awardSpy struct {
	actions []string
	err     error
}

func (a *awardSpy) AwardForAction(_ context.Context, _ int64, action string) (*points.Account, error) {
	a.actions = append(a.actions, action)
	return nil, a.err
}

func newTestService() (*Service, *memRepo, *awardSpy) {
	repo := newMemRepo()
	awards := &awardSpy{}
	return NewService(repo, awards, nil, nil), repo, awards
}

func createRoom(t *testing.T, svc *Service, creator int64, name string, typ RoomType) int64 {
	t.Helper()
	id, problems, err := svc.CreateRoom(context.Background(), creator, &CreateRoomRequest{Name: name, Type: string(typ)})
	require.NoError(t, err)
	require.Empty(t, problems)
	return id
}

func TestCreateRoomValidation(t *testing.T) {
	svc, repo, awards := newTestService()

	_, problems, err := svc.CreateRoom(context.Background(), 1, &CreateRoomRequest{
		Name: "   ",
		Type: "secret",
	})
	require.NoError(t, err)
	assert.Len(t, problems, 2)
	assert.Contains(t, problems[0], "name")
	assert.Contains(t, problems[1], "type")
	assert.Empty(t, repo.rooms, "nothing stored on validation failure")
	assert.Empty(t, awards.actions)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, problems, err = svc.CreateRoom(context.Background(), 1, &CreateRoomRequest{Name: string(long), Type: "public"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name: Value is too long (max: 100)"}, problems)
}

func TestCreateRoomNameLengthCountsLiteralCharacters(t *testing.T) {
	svc, repo, _ := newTestService()

	name := strings.Repeat("Q&A ", 25)[:100]
	id, problems, err := svc.CreateRoom(context.Background(), 1, &CreateRoomRequest{Name: name, Type: "public"})
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, strings.TrimSpace(name), repo.rooms[id].Name)
}

func TestCreateRoomSanitizesAndAwards(t *testing.T) {
	svc, repo, awards := newTestService()

	id, problems, err := svc.CreateRoom(context.Background(), 42, &CreateRoomRequest{
		Name: "<b>Algorithms Study</b>",
		Type: " PUBLIC ",
	})
	require.NoError(t, err)
	require.Empty(t, problems)

	assert.Equal(t, "Algorithms Study", repo.rooms[id].Name)
	assert.Equal(t, RoomTypePublic, repo.rooms[id].Type)
	assert.True(t, repo.members[id][42], "creator is first member")
	assert.Equal(t, []string{points.ActionRoomCreate}, awards.actions)
}

func TestPublicRoomVisibleToEveryone(t *testing.T) {
	svc, _, _ := newTestService()
	id := createRoom(t, svc, 42, "Algorithms Study", RoomTypePublic)

	rooms, err := svc.ListVisibleRooms(context.Background(), 99)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, id, rooms[0].ID)
}

func TestPrivateRoomHiddenFromNonMembers(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	id := createRoom(t, svc, 1, "Study group", RoomTypePrivate)

	rooms, err := svc.ListVisibleRooms(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	rooms, err = svc.ListVisibleRooms(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	_, _, err = svc.EnterRoom(ctx, 2, id)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.False(t, repo.members[id][2], "no membership created for hidden room")

	_, err = svc.PostMessage(ctx, 2, id, "hello")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.FetchSince(ctx, 2, id, 0)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestEnterPublicRoomAutoJoins(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	id := createRoom(t, svc, 1, "Lobby", RoomTypePublic)

	_, joined, err := svc.EnterRoom(ctx, 5, id)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.True(t, repo.members[id][5])

	_, joined, err = svc.EnterRoom(ctx, 5, id)
	require.NoError(t, err)
	assert.False(t, joined)
}

func TestJoinByInviteCode(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	private := createRoom(t, svc, 1, "Private", RoomTypePrivate)
	public := createRoom(t, svc, 1, "Public", RoomTypePublic)

	_, err := svc.JoinByInviteCode(ctx, 2, "not-a-code")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)

	_, err = svc.JoinByInviteCode(ctx, 2, NewInviteCode(public))
	assert.ErrorIs(t, err, ErrPublicRoomInvite)

	_, err = svc.JoinByInviteCode(ctx, 2, NewInviteCode(999))
	assert.ErrorIs(t, err, ErrRoomNotFound)

	code, err := svc.InviteCode(ctx, 1, private)
	require.NoError(t, err)

	room, err := svc.JoinByInviteCode(ctx, 2, code)
	require.NoError(t, err)
	assert.Equal(t, private, room.ID)
	assert.True(t, repo.members[private][2])

	_, err = svc.JoinByInviteCode(ctx, 2, code)
	require.NoError(t, err, "second join is a no-op success")
	assert.Len(t, repo.members[private], 2)

	_, err = svc.InviteCode(ctx, 3, private)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.InviteCode(ctx, 1, public)
	assert.ErrorIs(t, err, ErrPublicRoomInvite)
}

func TestPostMessage(t *testing.T) {
	svc, repo, awards := newTestService()
	ctx := context.Background()
	id := createRoom(t, svc, 1, "Lobby", RoomTypePublic)
	awards.actions = nil

	_, err := svc.PostMessage(ctx, 1, id, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.PostMessage(ctx, 1, id, "<script>alert(1)</script>")
	assert.ErrorIs(t, err, ErrEmptyMessage, "markup-only message is empty after sanitizing")

	msgID, err := svc.PostMessage(ctx, 1, id, "  see <i>chapter</i> 3 & 4 ")
	require.NoError(t, err)
	assert.Equal(t, "see chapter 3 & 4", repo.messages[len(repo.messages)-1].Message)
	assert.Equal(t, []string{points.ActionChatMessage}, awards.actions)

	got, err := svc.VisibleMessage(ctx, 7, msgID)
	require.NoError(t, err)
	assert.Equal(t, msgID, got.ID)
}

func TestPostMessageSurvivesAwardFailure(t *testing.T) {
	svc, _, awards := newTestService()
	awards.err = errors.New("points down")
	id := createRoom(t, svc, 1, "Lobby", RoomTypePublic)

	_, err := svc.PostMessage(context.Background(), 1, id, "hi")
	assert.NoError(t, err)
}

func TestFetchSinceNeverReturnsOlderMessages(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	room := createRoom(t, svc, 1, "Lobby", RoomTypePublic)

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := svc.PostMessage(ctx, int64(1+i%2), room, "msg")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	got, err := svc.FetchSince(ctx, 1, room, ids[1])
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[4], got[0].ID, "newest first")
	for _, m := range got {
		assert.Greater(t, m.ID, ids[1])
		assert.Equal(t, m.UserID == 1, m.IsOwnMessage)
		assert.Equal(t, "just now", m.TimeAgo)
	}

	for i := 0; i < PollCap+10; i++ {
		_, err := repo.CreateMessage(ctx, room, 2, "flood")
		require.NoError(t, err)
	}
	got, err = svc.FetchSince(ctx, 1, room, 0)
	require.NoError(t, err)
	assert.Len(t, got, PollCap)
}

func TestFetchHistoryPaging(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	room := createRoom(t, svc, 1, "Lobby", RoomTypePublic)
	for i := 0; i < HistoryPageSize+5; i++ {
		_, err := repo.CreateMessage(ctx, room, 1, "m")
		require.NoError(t, err)
	}

	page, err := svc.FetchHistory(ctx, 1, room, 2)
	require.NoError(t, err)
	assert.Equal(t, HistoryPageSize+5, page.Total)
	assert.Equal(t, 2, page.Pages())
	assert.Len(t, page.Messages, 5)
}

func TestRateLimiterNilAllows(t *testing.T) {
	var rl *RateLimiter
	assert.True(t, rl.Allow(context.Background(), 1))
	assert.True(t, NewRateLimiter(nil, 1, time.Second).Allow(context.Background(), 1))
}
