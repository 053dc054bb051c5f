package maintenance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database/dbtest"
)

type auditSpy struct{ actions []string }

func (a *auditSpy) LogAdminAction(_ context.Context, _ int64, action, _ string) {
	a.actions = append(a.actions, action)
}

func TestResultTotal(t *testing.T) {
	res := Result{Deleted: map[string]int64{"admin_logs": 2, "notifications": 3}}
	assert.Equal(t, int64(5), res.Total())
	assert.Zero(t, Result{}.Total())
}

func TestNewPrunerDefaultsRetention(t *testing.T) {
	assert.Equal(t, DefaultRetentionDays, NewPruner(nil, 0, nil).retentionDays)
	assert.Equal(t, 30, NewPruner(nil, 30, nil).retentionDays)
}

func TestPruneHandlerRejectsBadRetention(t *testing.T) {
	asAdmin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), 1, middleware.RoleAdmin)))
		})
	}
	h := NewHandler(NewPruner(nil, 30, nil)).AdminRoutes(asAdmin, middleware.RequireAdmin())

	req := httptest.NewRequest(http.MethodPost, "/prune", strings.NewReader(`{"retention_days":-1}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/prune", strings.NewReader(`{oops`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPrunerIntegration(t *testing.T) {
	db := dbtest.Open(t)
	user := dbtest.CreateUser(t, db, "student")
	admin := dbtest.CreateUser(t, db, "admin")
	old := time.Now().AddDate(0, 0, -40)

	_, err := db.Exec(`INSERT INTO notifications (user_id, message, is_read, created_at) VALUES
		($1, 'old read', TRUE, $2), ($1, 'old unread', FALSE, $2), ($1, 'new read', TRUE, NOW())`, user, old)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO points_history (user_id, points, action, created_at) VALUES
		($1, 1, 'chat_message', $2), ($1, 1, 'chat_message', NOW())`, user, old)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO activity_logs (user_id, action, created_at) VALUES ($1, 'old', $2)`, user, old)
	require.NoError(t, err)

	audit := &auditSpy{}
	p := NewPruner(db, 30, audit)
	res, err := p.Prune(context.Background(), admin, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, res.RetentionDays)
	assert.GreaterOrEqual(t, res.Deleted["notifications"], int64(1))
	assert.Equal(t, []string{"prune_logs"}, audit.actions)

	var left []string
	require.NoError(t, db.Select(&left, `SELECT message FROM notifications WHERE user_id = $1 ORDER BY message`, user))
	assert.Equal(t, []string{"new read", "old unread"}, left)

	var history int
	require.NoError(t, db.Get(&history, `SELECT COUNT(*) FROM points_history WHERE user_id = $1`, user))
	assert.Equal(t, 1, history)

	var logs int
	require.NoError(t, db.Get(&logs, `SELECT COUNT(*) FROM activity_logs WHERE user_id = $1`, user))
	assert.Zero(t, logs)
}
