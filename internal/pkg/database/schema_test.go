package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database/dbtest"
)

func TestEnsureSchemaRetriesAfterFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	unreachable, err := sqlx.Open("postgres", "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	defer unreachable.Close()
	firstErr := database.EnsureSchema(ctx, unreachable)

	// dbtest.Open applies the schema itself and fails the test if that errors
	db := dbtest.Open(t)
	if firstErr != nil {
		assert.Contains(t, firstErr.Error(), "apply schema")
	}
	assert.NoError(t, database.EnsureSchema(ctx, db))
}
