package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

const otpQuotaPrefix = "otp:quota:"

// Un contador por (propósito, email); la primera emisión de la ventana
// fija el vencimiento de la clave.
const otpQuotaScript = `
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return hits
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisOTPRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
}

// NewRedisOTPRateLimiter crea una cuota de emisión de OTP respaldada en Redis.
func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		client: client,
		window: window,
		max:    max,
	}
}

// Allow incrementa la cuota del destinatario. Un error de Redis deja
// pasar el request, igual que el limitador HTTP.
func (l *redisOTPRateLimiter) Allow(purpose domain.OTPType, email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := otpQuotaKey(purpose, email)
	if key == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	hits, err := l.client.Eval(ctx, otpQuotaScript, []string{otpQuotaPrefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return hits <= l.max
}
