package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

func TestOTPRateLimiter_Window(t *testing.T) {
	limiter := NewOTPRateLimiter(time.Minute, 2)

	for i := 0; i < 2; i++ {
		if !limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
			t.Fatalf("request %d must be allowed", i+1)
		}
	}
	if limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("third request must be denied")
	}

	// Otro destinatario no comparte cuota.
	if !limiter.Allow(domain.OTPPasswordReset, "b@x.com") {
		t.Fatalf("different email must have its own budget")
	}
}

func TestOTPRateLimiter_PurposesAreIndependent(t *testing.T) {
	limiter := NewOTPRateLimiter(time.Minute, 1)

	if !limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("first reset must be allowed")
	}
	if limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("second reset must be denied")
	}
	// Agotar el reset no bloquea la verificación de email.
	if !limiter.Allow(domain.OTPEmailVerification, "a@x.com") {
		t.Fatalf("verification budget must be independent")
	}
}

func TestOTPRateLimiter_WindowReset(t *testing.T) {
	limiter := NewOTPRateLimiter(10*time.Millisecond, 1)

	if !limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("first request must be allowed")
	}
	if limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("second request must be denied")
	}
	time.Sleep(15 * time.Millisecond)
	if !limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("request after window must be allowed")
	}
}

func TestOTPRateLimiter_DiscardsStaleBuckets(t *testing.T) {
	limiter := NewOTPRateLimiter(10*time.Millisecond, 1)

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
		limiter.Allow(domain.OTPPasswordReset, email)
	}
	time.Sleep(15 * time.Millisecond)
	limiter.Allow(domain.OTPPasswordReset, "fresh@x.com")

	mem := limiter.(*memoryOTPRateLimiter)
	mem.mu.Lock()
	size := len(mem.buckets)
	mem.mu.Unlock()
	if size != 1 {
		t.Fatalf("expected expired buckets to be swept, got %d entries", size)
	}
}

func TestOTPRateLimiter_EmptyEmail(t *testing.T) {
	limiter := NewOTPRateLimiter(time.Minute, 5)
	if limiter.Allow(domain.OTPPasswordReset, "   ") {
		t.Fatalf("blank email must be rejected")
	}
}

type mockRedisEvaler struct {
	lastKeys []string
	lastArgs []interface{}
	calls    int
	val      int64
	err      error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	m.calls++
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
	} else {
		cmd.SetVal(m.val)
	}
	return cmd
}

func TestRedisOTPRateLimiter_KeyAndWindow(t *testing.T) {
	evaler := &mockRedisEvaler{val: 1}
	limiter := &redisOTPRateLimiter{client: evaler, window: 2 * time.Minute, max: 3}

	if !limiter.Allow(domain.OTPPasswordReset, "  User@Example.com ") {
		t.Fatalf("first request must be allowed")
	}
	if len(evaler.lastKeys) != 1 || evaler.lastKeys[0] != "otp:quota:password_reset:user@example.com" {
		t.Fatalf("unexpected key %v", evaler.lastKeys)
	}
	if len(evaler.lastArgs) != 1 || evaler.lastArgs[0] != 120 {
		t.Fatalf("unexpected window args %v", evaler.lastArgs)
	}
}

func TestRedisOTPRateLimiter_DeniesOverQuota(t *testing.T) {
	evaler := &mockRedisEvaler{val: 4}
	limiter := &redisOTPRateLimiter{client: evaler, window: time.Minute, max: 3}

	if limiter.Allow(domain.OTPEmailVerification, "a@x.com") {
		t.Fatalf("count above max must be denied")
	}
}

func TestRedisOTPRateLimiter_FailsOpen(t *testing.T) {
	evaler := &mockRedisEvaler{err: errors.New("redis down")}
	limiter := &redisOTPRateLimiter{client: evaler, window: time.Minute, max: 1}

	if !limiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("redis errors must not block the request")
	}

	var nilLimiter *redisOTPRateLimiter
	if !nilLimiter.Allow(domain.OTPPasswordReset, "a@x.com") {
		t.Fatalf("nil limiter must pass through")
	}
}

func TestRedisOTPRateLimiter_EmptyEmail(t *testing.T) {
	evaler := &mockRedisEvaler{val: 1}
	limiter := &redisOTPRateLimiter{client: evaler, window: time.Minute, max: 3}

	if limiter.Allow(domain.OTPPasswordReset, "") {
		t.Fatalf("blank email must be rejected")
	}
	if evaler.calls != 0 {
		t.Fatalf("blank email must not reach redis")
	}
}

func TestNewRedisOTPRateLimiter_NilClient(t *testing.T) {
	if limiter := NewRedisOTPRateLimiter(nil, time.Minute, 3); limiter != nil {
		t.Fatalf("nil client must yield a nil limiter")
	}
}
