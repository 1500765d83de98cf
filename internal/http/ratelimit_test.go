package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func newRateLimitRouter(limiter RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(zap.NewNop(), limiter))
	r.GET("/ping", func(c *gin.Context) {
		respondOK(c, http.StatusOK, "pong", nil)
	})
	return r
}

func TestMemoryRateLimiter(t *testing.T) {
	limiter := NewMemoryRateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "1.2.3.4")
		if err != nil || !allowed {
			t.Fatalf("request %d: expected allowed, got allowed=%v err=%v", i+1, allowed, err)
		}
	}
	allowed, retryAfter, err := limiter.Allow(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Fatalf("expected third request to be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", retryAfter)
	}

	// Otra clave tiene su propia ventana.
	allowed, _, err = limiter.Allow(context.Background(), "5.6.7.8")
	if err != nil || !allowed {
		t.Fatalf("expected separate key to be allowed, got allowed=%v err=%v", allowed, err)
	}
}

func TestMemoryRateLimiter_WindowReset(t *testing.T) {
	limiter := NewMemoryRateLimiter(1, 10*time.Millisecond)

	if allowed, _, _ := limiter.Allow(context.Background(), "k"); !allowed {
		t.Fatalf("expected first request allowed")
	}
	if allowed, _, _ := limiter.Allow(context.Background(), "k"); allowed {
		t.Fatalf("expected second request denied")
	}
	time.Sleep(15 * time.Millisecond)
	if allowed, _, _ := limiter.Allow(context.Background(), "k"); !allowed {
		t.Fatalf("expected request allowed after window reset")
	}
}

func TestMemoryRateLimiter_DiscardsStaleEntries(t *testing.T) {
	limiter := NewMemoryRateLimiter(1, 10*time.Millisecond)

	for _, ip := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"} {
		if _, _, err := limiter.Allow(context.Background(), ip); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}
	time.Sleep(15 * time.Millisecond)
	if _, _, err := limiter.Allow(context.Background(), "5.5.5.5"); err != nil {
		t.Fatalf("Allow: %v", err)
	}

	mem := limiter.(*memoryRateLimiter)
	mem.mu.Lock()
	size := len(mem.entries)
	mem.mu.Unlock()
	if size != 1 {
		t.Fatalf("expected expired entries to be swept, got %d", size)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRateLimitRouter(NewMemoryRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		rec := performRequest(r, http.MethodGet, "/ping", nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	rec := performRequest(r, http.MethodGet, "/ping", nil, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	env := decodeEnvelope(t, rec)
	if env.Code != CodeRateLimited {
		t.Fatalf("expected RATE_LIMITED, got %+v", env)
	}
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	r := newRateLimitRouter(erroringLimiter{})
	rec := performRequest(r, http.MethodGet, "/ping", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter errors to fail open, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	r := newRateLimitRouter(nil)
	rec := performRequest(r, http.MethodGet, "/ping", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected nil limiter to pass through, got %d", rec.Code)
	}
}
