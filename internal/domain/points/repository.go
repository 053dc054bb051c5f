package points

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository defines points ledger persistence
type Repository interface {
	Award(ctx context.Context, userID int64, delta int, action, description string) (*Account, error)
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	ListHistory(ctx context.Context, userID int64, limit, offset int) ([]HistoryEntry, int, error)
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates points repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Award adds delta to the account, recomputes the level and appends a history
// row in one transaction. The upsert takes the row lock, so concurrent awards
// for the same user serialize instead of losing updates.
func (r *repository) Award(ctx context.Context, userID int64, delta int, action, description string) (*Account, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	var total int
	err = tx.GetContext(ctx2, &total, `
		INSERT INTO user_points (user_id, points, level, last_updated)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET points = user_points.points + EXCLUDED.points, last_updated = NOW()
		RETURNING points
	`, userID, delta)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: upsert account: %v", ErrInternal, err)
	}

	acc := &Account{UserID: userID, Points: total, Level: LevelFor(total)}
	err = tx.GetContext(ctx2, &acc.LastUpdated, `
		UPDATE user_points SET level = $2 WHERE user_id = $1 RETURNING last_updated
	`, userID, acc.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: update level: %v", ErrInternal, err)
	}

	if strings.TrimSpace(description) == "" {
		description = action
	}
	_, err = tx.ExecContext(ctx2, `
		INSERT INTO points_history (user_id, points, action, description)
		VALUES ($1, $2, $3, $4)
	`, userID, delta, action, description)
	if err != nil {
		return nil, fmt.Errorf("%w: insert history: %v", ErrInternal, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx: %v", ErrInternal, err)
	}
	return acc, nil
}

func (r *repository) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var acc Account
	err := r.db.GetContext(ctx2, &acc, `
		SELECT user_id, points, level, last_updated FROM user_points WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *repository) ListHistory(ctx context.Context, userID int64, limit, offset int) ([]HistoryEntry, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM points_history WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	entries := make([]HistoryEntry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, user_id, points, action, description, created_at
		FROM points_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return entries, total, err
}

func (r *repository) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries := make([]LeaderboardEntry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT p.user_id, u.first_name, u.last_name, u.profile_image, p.points, p.level
		FROM user_points p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.points DESC, p.last_updated ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
