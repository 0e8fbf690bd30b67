package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/novelhub/pkg/response"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// Counter increments a windowed counter
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// RedisCounter keeps rate limit windows in Redis
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a new RedisCounter
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// IncrWithExpire increments a key and sets its expiration
func (r *RedisCounter) IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit limits each client to RequestsPerMinute plus BurstSize per minute.
// Requests pass through when the counter store is unavailable.
func RateLimit(counter Counter, cfg RateLimitConfig) gin.HandlerFunc {
	const window = time.Minute

	return func(c *gin.Context) {
		windowStart := time.Now().Truncate(window)
		key := fmt.Sprintf("ratelimit:%s:%d", clientID(c), windowStart.Unix())

		count, err := counter.IncrWithExpire(c.Request.Context(), key, window)
		if err != nil {
			LogError("rate limit counter unavailable: %v", err)
			c.Next()
			return
		}

		limit := cfg.RequestsPerMinute
		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(windowStart.Add(window).Unix(), 10))

		if int(count) > limit+cfg.BurstSize {
			rateLimitedTotal.Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c, "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}

// clientID prefers the authenticated user and falls back to the client IP
func clientID(c *gin.Context) string {
	if id := GetUserID(c); id != uuid.Nil {
		return "user:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
