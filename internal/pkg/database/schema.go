package database

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

var (
	schemaMu    sync.Mutex
	schemaReady bool
)

// EnsureSchema creates missing tables. Once the DDL has succeeded later calls
// are no-ops; a failed attempt is retried on the next call.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if schemaReady {
		return nil
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	schemaReady = true
	log.Debug().Msg("Database schema ensured")
	return nil
}

// Schema returns the embedded DDL. Integration tests apply it to scratch databases.
func Schema() string {
	return schemaSQL
}
