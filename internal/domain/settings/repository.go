package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Setting is one row of system_settings
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Repository defines settings persistence
type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	List(ctx context.Context) ([]Setting, error)
	Upsert(ctx context.Context, key, value string) (*Setting, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates settings repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.db.GetContext(ctx, &s, `SELECT key, value, updated_at FROM system_settings WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context) ([]Setting, error) {
	out := []Setting{}
	err := r.db.SelectContext(ctx, &out, `SELECT key, value, updated_at FROM system_settings ORDER BY key`)
	return out, err
}

func (r *repository) Upsert(ctx context.Context, key, value string) (*Setting, error) {
	var s Setting
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value, updated_at
	`, key, value)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
