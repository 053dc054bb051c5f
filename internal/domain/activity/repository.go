package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

// Repository defines audit log persistence
type Repository interface {
	Create(ctx context.Context, kind Kind, actorID int64, action, details string) error
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates activity repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// table and actor column are picked from a closed set, never from input.
func tableFor(kind Kind) (table, actorCol string) {
	if kind == KindAdmin {
		return "admin_logs", "admin_id"
	}
	return "activity_logs", "user_id"
}

func (r *repository) Create(ctx context.Context, kind Kind, actorID int64, action, details string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	table, actorCol := tableFor(kind)
	var actor interface{}
	if actorID > 0 {
		actor = actorID
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, action, details) VALUES ($1, $2, $3)`, table, actorCol)
	if _, err := r.db.ExecContext(ctx, query, actor, action, details); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	filter.normalize()
	table, actorCol := tableFor(filter.Kind)

	f := database.NewFilter().
		AddIf(filter.ActorID > 0, "l."+actorCol+" = ?", filter.ActorID).
		AddIf(filter.Action != "", "l.action = ?", filter.Action)
	if filter.From != nil {
		f.Add("l.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		f.Add("l.created_at <= ?", *filter.To)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s l`, table) + f.Where()
	if err := r.db.GetContext(ctx, &total, countQuery, f.Args()...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	page, args := f.Page(filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT l.id, l.%[2]s AS actor_id,
		       COALESCE(TRIM(u.first_name || ' ' || u.last_name), '') AS actor_name,
		       l.action, l.details, l.created_at
		FROM %[1]s l
		LEFT JOIN users u ON u.id = l.%[2]s`, table, actorCol) +
		f.Where() + ` ORDER BY l.created_at DESC, l.id DESC` + page

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	return entries, total, nil
}
