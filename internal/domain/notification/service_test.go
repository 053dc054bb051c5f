package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database/dbtest"
)

type memRepo struct {
	items     []*Notification
	createErr error
}

func (m *memRepo) Create(_ context.Context, userID int64, message, link string) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	n := &Notification{ID: int64(len(m.items) + 1), UserID: userID, Message: message, Link: link, CreatedAt: time.Now()}
	m.items = append(m.items, n)
	return n.ID, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	var out []*Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	total := len(out)
	if offset >= total {
		return []*Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (m *memRepo) CountUnreadByUser(_ context.Context, userID int64) (int, error) {
	c := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (m *memRepo) MarkAsRead(_ context.Context, userID, id int64) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) MarkAllAsRead(_ context.Context, userID int64) (int64, error) {
	var c int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

func TestCreateSwallowsErrors(t *testing.T) {
	svc := NewService(&memRepo{createErr: errors.New("insert failed")})
	assert.NotPanics(t, func() {
		svc.Create(context.Background(), 7, "You earned a badge", "/badges")
	})
}

func TestMarkAsReadOwnership(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	svc.Create(ctx, 1, "hello", "")
	svc.Create(ctx, 2, "other", "")

	assert.ErrorIs(t, svc.MarkAsRead(ctx, 1, 2), ErrNotificationNotFound)
	require.NoError(t, svc.MarkAsRead(ctx, 1, 1))

	count, err := svc.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandlerListAndMarkAll(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	h := NewHandler(svc)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		svc.Create(ctx, 5, "msg", "/chat")
	}

	authed := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), 5, middleware.RoleStudent)))
		})
	}
	router := chi.NewRouter()
	router.Mount("/notifications", h.Routes(authed))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/notifications?limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []NotificationResponse `json:"data"`
		Meta struct {
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 3, body.Meta.Total)
	assert.True(t, body.Meta.HasNext)
	assert.Equal(t, "just now", body.Data[0].TimeAgo)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"updated":3}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notifications/abc/read", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notifications/99/read", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRepositoryIntegration(t *testing.T) {
	db := dbtest.Open(t)
	userID := dbtest.CreateUser(t, db, "student")
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, userID, "first", "/chat")
	require.NoError(t, err)
	_, err = repo.Create(ctx, userID, "second", "")
	require.NoError(t, err)

	ok, err := repo.MarkAsRead(ctx, userID, first)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, total, err := repo.ListByUser(ctx, userID, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, unread, 1)
	assert.Equal(t, "second", unread[0].Message)

	n, err := repo.MarkAllAsRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
