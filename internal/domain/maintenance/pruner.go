package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// DefaultRetentionDays applies when no retention is configured
const DefaultRetentionDays = 180

// target is one table the pruner trims
type target struct {
	name  string
	query string
}

// Only read notifications are pruned; unread ones stay until the user sees them.
var targets = []target{
	{"points_history", `DELETE FROM points_history WHERE created_at < $1`},
	{"activity_logs", `DELETE FROM activity_logs WHERE created_at < $1`},
	{"admin_logs", `DELETE FROM admin_logs WHERE created_at < $1`},
	{"notifications", `DELETE FROM notifications WHERE created_at < $1 AND is_read = TRUE`},
}

// Result holds deleted row counts per table
type Result struct {
	RetentionDays int              `json:"retention_days"`
	Cutoff        time.Time        `json:"cutoff"`
	Deleted       map[string]int64 `json:"deleted"`
}

// Total returns the number of rows deleted across all tables
func (r Result) Total() int64 {
	var n int64
	for _, v := range r.Deleted {
		n += v
	}
	return n
}

// AuditLogger records admin actions
type AuditLogger interface {
	LogAdminAction(ctx context.Context, adminID int64, action, details string)
}

// Pruner deletes old log and ledger rows
type Pruner struct {
	db            *sqlx.DB
	retentionDays int
	audit         AuditLogger
	now           func() time.Time
}

// NewPruner creates a pruner. audit may be nil.
func NewPruner(db *sqlx.DB, retentionDays int, audit AuditLogger) *Pruner {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Pruner{
		db:            db,
		retentionDays: retentionDays,
		audit:         audit,
		now:           time.Now,
	}
}

// Start runs the pruner every interval until ctx is cancelled
func (p *Pruner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	p.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Pruner stopped")
			return
		case <-ticker.C:
			p.runLogged(ctx)
		}
	}
}

func (p *Pruner) runLogged(ctx context.Context) {
	res, err := p.RunOnce(ctx, 0)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune old records")
		return
	}
	if res.Total() > 0 {
		log.Info().
			Interface("deleted", res.Deleted).
			Int("retention_days", res.RetentionDays).
			Msg("Pruned old records")
	}
}

// RunOnce deletes rows older than retentionDays (the configured value when
// zero). Tables are pruned independently; the first failure stops the run and
// earlier deletions stay.
func (p *Pruner) RunOnce(ctx context.Context, retentionDays int) (Result, error) {
	if retentionDays <= 0 {
		retentionDays = p.retentionDays
	}
	res := Result{
		RetentionDays: retentionDays,
		Cutoff:        p.now().AddDate(0, 0, -retentionDays),
		Deleted:       make(map[string]int64, len(targets)),
	}

	for _, t := range targets {
		out, err := p.db.ExecContext(ctx, t.query, res.Cutoff)
		if err != nil {
			return res, fmt.Errorf("prune %s: %w", t.name, err)
		}
		res.Deleted[t.name], _ = out.RowsAffected()
	}
	return res, nil
}

// Prune is RunOnce on behalf of an admin, with an audit entry
func (p *Pruner) Prune(ctx context.Context, adminID int64, retentionDays int) (Result, error) {
	res, err := p.RunOnce(ctx, retentionDays)
	if err != nil {
		return res, err
	}
	if p.audit != nil {
		p.audit.LogAdminAction(ctx, adminID, "prune_logs",
			fmt.Sprintf("retention %d days, %d rows deleted", res.RetentionDays, res.Total()))
	}
	return res, nil
}
