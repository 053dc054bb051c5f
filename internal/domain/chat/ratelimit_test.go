package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/database/dbtest"
)

func TestRateLimiterWindowIntegration(t *testing.T) {
	client := dbtest.OpenRedis(t)
	ctx := context.Background()
	userID := time.Now().UnixNano()
	key := fmt.Sprintf("ratelimit:chat:%d", userID)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	rl := NewRateLimiter(client, 2, time.Minute)
	assert.True(t, rl.Allow(ctx, userID))
	assert.True(t, rl.Allow(ctx, userID))
	assert.False(t, rl.Allow(ctx, userID))

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRateLimiterRepairsMissingExpiryIntegration(t *testing.T) {
	client := dbtest.OpenRedis(t)
	ctx := context.Background()
	userID := time.Now().UnixNano()
	key := fmt.Sprintf("ratelimit:chat:%d", userID)
	t.Cleanup(func() { client.Del(context.Background(), key) })

	// counter left behind without a TTL
	require.NoError(t, client.Set(ctx, key, 10, 0).Err())

	rl := NewRateLimiter(client, 2, time.Minute)
	assert.False(t, rl.Allow(ctx, userID))

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "stuck counter gets an expiry")
	assert.LessOrEqual(t, ttl, time.Minute)
}
