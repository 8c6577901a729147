// Package ratelimit throttles public endpoints per client.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
)

// Limiter decides whether one more request under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared by every instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return count <= int64(l.limit), nil
}

// LocalLimiter is a per-process token bucket, used when Redis is not configured.
type LocalLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &LocalLimiter{
		every: rate.Every(window / time.Duration(limit)),
		burst: limit,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter).Allow(), nil
	}
	lim, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.every, l.burst))
	return lim.(*rate.Limiter).Allow(), nil
}

// Middleware rejects requests over the limit with 429, keyed by route and client IP.
// Limiter errors let the request through.
func Middleware(l Limiter, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		route := c.FullPath()
		ok, err := l.Allow(c.Request.Context(), route+":"+c.ClientIP())
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			metrics.IncRateLimited(route)
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
