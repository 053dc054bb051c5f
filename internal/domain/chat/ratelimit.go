package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
)

// RateLimiter caps messages per user in a fixed window
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a rate limiter. A nil client or limit <= 0 allows everything.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow checks if user can send message
func (rl *RateLimiter) Allow(ctx context.Context, userID int64) bool {
	if rl == nil || rl.redis == nil || rl.limit <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:chat:%d", userID)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Chat rate limiter unavailable")
		return true // fail open
	}

	// a counter without TTL would never reset, so set it whenever it is missing
	if ttl.Val() < 0 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Chat rate limit expiry not set")
		}
	}

	return incr.Val() <= int64(rl.limit)
}
