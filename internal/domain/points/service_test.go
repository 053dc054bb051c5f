package points

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database/dbtest"
)

type memRepo struct {
	mu       sync.Mutex
	accounts map[int64]*Account
	history  []HistoryEntry
	fail     error
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: map[int64]*Account{}}
}

func (m *memRepo) Award(_ context.Context, userID int64, delta int, action, description string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	acc, ok := m.accounts[userID]
	if !ok {
		acc = &Account{UserID: userID}
		m.accounts[userID] = acc
	}
	acc.Points += delta
	acc.Level = LevelFor(acc.Points)
	acc.LastUpdated = time.Now()
	m.history = append(m.history, HistoryEntry{ID: int64(len(m.history) + 1), UserID: userID, Points: delta, Action: action, Description: description})
	cp := *acc
	return &cp, nil
}

func (m *memRepo) GetAccount(_ context.Context, userID int64) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[userID]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) ListHistory(_ context.Context, userID int64, limit, offset int) ([]HistoryEntry, int, error) {
	var out []HistoryEntry
	for _, h := range m.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Top(context.Context, int) ([]LeaderboardEntry, error) {
	return []LeaderboardEntry{}, nil
}

type badgeSpy struct {
	totals []int
	err    error
}

func (b *badgeSpy) CheckAndAwardBadges(_ context.Context, _ int64, currentPoints int) (int, error) {
	b.totals = append(b.totals, currentPoints)
	return 0, b.err
}

type staticSettings map[string]int

func (s staticSettings) GetInt(_ context.Context, key string, def int) int {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

func TestLevelFor(t *testing.T) {
	cases := map[int]int{
		-5: 1, 0: 1, 99: 1,
		100: 2, 499: 2,
		500: 3, 999: 3,
		1000: 4, 4999: 4,
		5000: 5, 100000: 5,
	}
	for pts, want := range cases {
		assert.Equal(t, want, LevelFor(pts), "points=%d", pts)
	}
	assert.Equal(t, 100, NextLevelAt(0))
	assert.Equal(t, 1000, NextLevelAt(515))
	assert.Equal(t, 0, NextLevelAt(5000))
}

func TestAwardPointsUpdatesLevelAndChecksBadges(t *testing.T) {
	repo := newMemRepo()
	badges := &badgeSpy{}
	svc := NewService(repo, badges, nil, nil, nil)
	ctx := context.Background()

	acc, err := svc.AwardPoints(ctx, 1, 10, ActionChatMessage, "")
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Points)
	assert.Equal(t, 1, acc.Level)

	acc, err = svc.AwardPoints(ctx, 1, 495, ActionAdminAdjust, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 505, acc.Points)
	assert.Equal(t, 3, acc.Level)

	assert.Equal(t, []int{10, 505}, badges.totals)
	assert.Len(t, repo.history, 2)
}

func TestAwardPointsIgnoresBadgeFailure(t *testing.T) {
	svc := NewService(newMemRepo(), &badgeSpy{err: errors.New("badge table locked")}, nil, nil, nil)

	acc, err := svc.AwardPoints(context.Background(), 1, 5, ActionRoomCreate, "")
	require.NoError(t, err)
	assert.Equal(t, 5, acc.Points)
}

func TestAwardPointsZeroDeltaStillRecorded(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.AwardPoints(ctx, 1, 7, ActionRoomCreate, "")
	require.NoError(t, err)

	acc, err := svc.AwardPoints(ctx, 1, 0, ActionChatMessage, "no-op")
	require.NoError(t, err)
	assert.Equal(t, 7, acc.Points)
	require.Len(t, repo.history, 2)
	assert.Equal(t, 0, repo.history[1].Points)
	assert.Equal(t, "no-op", repo.history[1].Description)
}

func TestAwardPointsRepoFailureSkipsBadges(t *testing.T) {
	repo := newMemRepo()
	repo.fail = ErrInternal
	badges := &badgeSpy{}
	svc := NewService(repo, badges, nil, nil, nil)

	_, err := svc.AwardPoints(context.Background(), 1, 5, ActionRoomCreate, "")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, badges.totals)
}

func TestAwardForActionReadsSettings(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, staticSettings{"points.chat_message": 3, "points.room_create": 0}, nil, nil)
	ctx := context.Background()

	acc, err := svc.AwardForAction(ctx, 1, ActionChatMessage)
	require.NoError(t, err)
	assert.Equal(t, 3, acc.Points)

	acc, err = svc.AwardForAction(ctx, 1, ActionRoomCreate)
	require.NoError(t, err)
	assert.Nil(t, acc, "zero setting disables the award")

	acc, err = svc.AwardForAction(ctx, 1, ActionReportUpheld)
	require.NoError(t, err)
	assert.Equal(t, 8, acc.Points, "falls back to default")
}

func TestGetAccountDefaultsToLevelOne(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil, nil, nil)

	acc, err := svc.GetAccount(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 0, acc.Points)
	assert.Equal(t, 1, acc.Level)
}

func TestRepositoryAwardIntegration(t *testing.T) {
	db := dbtest.Open(t)
	userID := dbtest.CreateUser(t, db, "student")
	repo := NewRepository(db)
	ctx := context.Background()

	acc, err := repo.Award(ctx, userID, 10, ActionChatMessage, "")
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Points)
	assert.Equal(t, 1, acc.Level)

	acc, err = repo.Award(ctx, userID, 495, ActionAdminAdjust, "bonus")
	require.NoError(t, err)
	assert.Equal(t, 505, acc.Points)
	assert.Equal(t, 3, acc.Level)

	stored, err := repo.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Level)

	history, total, err := repo.ListHistory(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 495, history[0].Points)
	assert.Equal(t, ActionChatMessage, history[1].Description, "empty description falls back to action")

	_, err = repo.Award(ctx, -1, 5, ActionChatMessage, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepositoryConcurrentAwardsIntegration(t *testing.T) {
	db := dbtest.Open(t)
	userID := dbtest.CreateUser(t, db, "student")
	repo := NewRepository(db)

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Award(context.Background(), userID, 1, ActionChatMessage, ""); err != nil {
				t.Errorf("award: %v", err)
			}
		}()
	}
	wg.Wait()

	acc, err := repo.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, goroutines, acc.Points)

	_, total, err := repo.ListHistory(context.Background(), userID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, goroutines, total)
}
