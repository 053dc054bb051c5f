// Package dbtest opens a scratch PostgreSQL database for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database"
)

// Open connects to TEST_DATABASE_URL and applies the schema.
// The test is skipped when the variable is unset or the database is unreachable.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("db not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// CreateUser inserts a user with a unique email and removes it (with the rooms
// it created) when the test ends.
func CreateUser(t *testing.T, db *sqlx.DB, role string) int64 {
	t.Helper()

	var id int64
	err := db.Get(&id, `
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, 'hash', 'Test', 'User', $2)
		RETURNING id
	`, fmt.Sprintf("test_%s@test.local", uuid.New().String()[:8]), role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM chat_rooms WHERE created_by = $1`, id)
		db.Exec(`DELETE FROM users WHERE id = $1`, id)
	})
	return id
}
