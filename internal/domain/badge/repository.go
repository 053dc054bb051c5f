package badge

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines badge catalog and grant persistence
type Repository interface {
	List(ctx context.Context) ([]Badge, error)
	GetByID(ctx context.Context, id int64) (*Badge, error)
	Create(ctx context.Context, b *Badge) error
	Update(ctx context.Context, b *Badge) error
	Delete(ctx context.Context, id int64) (bool, error)
	SetIcon(ctx context.Context, id int64, icon string) error

	EarnedIDs(ctx context.Context, userID int64) (map[int64]bool, error)
	Grant(ctx context.Context, userID, badgeID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]EarnedBadge, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates badge repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *repository) List(ctx context.Context) ([]Badge, error) {
	badges := []Badge{}
	err := r.db.SelectContext(ctx, &badges, `
		SELECT id, name, description, icon, points_required, created_at
		FROM badges
		ORDER BY points_required, id
	`)
	return badges, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Badge, error) {
	var b Badge
	err := r.db.GetContext(ctx, &b, `
		SELECT id, name, description, icon, points_required, created_at
		FROM badges WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Create(ctx context.Context, b *Badge) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO badges (name, description, icon, points_required)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, b.Name, b.Description, b.Icon, b.PointsRequired).Scan(&b.ID, &b.CreatedAt)
	if isUniqueViolation(err) {
		return ErrBadgeNameTaken
	}
	return err
}

func (r *repository) Update(ctx context.Context, b *Badge) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE badges SET name = $2, description = $3, points_required = $4
		WHERE id = $1
	`, b.ID, b.Name, b.Description, b.PointsRequired)
	if isUniqueViolation(err) {
		return ErrBadgeNameTaken
	}
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBadgeNotFound
	}
	return nil
}

// Delete removes the badge; grants go with it via ON DELETE CASCADE
func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM badges WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *repository) SetIcon(ctx context.Context, id int64, icon string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE badges SET icon = $2 WHERE id = $1`, id, icon)
	return err
}

func (r *repository) EarnedIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT badge_id FROM user_badges WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	earned := make(map[int64]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

// Grant reports false when the user already holds the badge
func (r *repository) Grant(ctx context.Context, userID, badgeID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`, userID, badgeID)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]EarnedBadge, error) {
	badges := []EarnedBadge{}
	err := r.db.SelectContext(ctx, &badges, `
		SELECT b.id, b.name, b.description, b.icon, b.points_required, b.created_at, ub.earned_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.earned_at DESC, b.id
	`, userID)
	return badges, err
}
