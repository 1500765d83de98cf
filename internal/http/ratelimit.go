package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter decide si una clave (IP) puede seguir haciendo requests
// dentro de la ventana vigente.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*rateEntry
	swept   time.Time
}

type rateEntry struct {
	count int
	reset time.Time
}

// NewMemoryRateLimiter crea un limitador de ventana fija en memoria.
func NewMemoryRateLimiter(limit int, window time.Duration) RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryRateLimiter{
		limit:   limit,
		window:  window,
		entries: map[string]*rateEntry{},
		swept:   time.Now().UTC(),
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok || now.After(e.reset) {
		l.entries[key] = &rateEntry{count: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}
	if e.count >= l.limit {
		return false, time.Until(e.reset), nil
	}
	e.count++
	return true, 0, nil
}

// sweep descarta a lo sumo una vez por ventana las entradas vencidas de
// IPs que no regresan.
func (l *memoryRateLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	for key, e := range l.entries {
		if now.After(e.reset) {
			delete(l.entries, key)
		}
	}
	l.swept = now
}

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = redis.call("INCR", key)
if current == 1 then
  redis.call("PEXPIRE", key, window_ms)
end

local ttl = redis.call("PTTL", key)
if ttl < 0 then
  ttl = window_ms
end

if current > limit then
  return {0, ttl}
end
return {1, ttl}
`)

type redisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisRateLimiter crea un limitador de ventana fija respaldado en Redis.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) RateLimiter {
	if client == nil {
		return nil
	}
	return &redisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "api:rl:",
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	windowMS := int64(l.window / time.Millisecond)
	if windowMS <= 0 {
		return false, 0, fmt.Errorf("invalid rate limit window")
	}

	res, err := rateLimitScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, windowMS).Result()
	if err != nil {
		return false, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, fmt.Errorf("unexpected redis response")
	}
	allowedInt, ok := vals[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis response")
	}
	ttlMS, ok := vals[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis response")
	}

	retryAfter := time.Duration(ttlMS) * time.Millisecond
	if retryAfter < 0 {
		retryAfter = 0
	}
	return allowedInt == 1, retryAfter, nil
}

// RateLimitMiddleware aplica el límite por IP de cliente. Si el limitador
// falla se deja pasar el request y se registra el error.
func RateLimitMiddleware(logger *zap.Logger, limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter failed", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			abortError(c, http.StatusTooManyRequests, "too many requests", CodeRateLimited)
			return
		}
		c.Next()
	}
}
