package service

import (
	"strings"
	"sync"
	"time"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

// OTPRateLimiter limita cuántos códigos puede pedir un destinatario.
// Cada propósito (reset de contraseña, verificación de email) tiene su
// propia cuota.
type OTPRateLimiter interface {
	Allow(purpose domain.OTPType, email string) bool
}

type memoryOTPRateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]otpBucket
	swept   time.Time
}

type otpBucket struct {
	count int
	reset time.Time
}

// NewOTPRateLimiter crea una cuota de ventana fija en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryOTPRateLimiter{
		window:  window,
		max:     max,
		buckets: make(map[string]otpBucket),
		swept:   time.Now().UTC(),
	}
}

func (l *memoryOTPRateLimiter) Allow(purpose domain.OTPType, email string) bool {
	key := otpQuotaKey(purpose, email)
	if key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	l.sweep(now)

	bucket, ok := l.buckets[key]
	if !ok || now.After(bucket.reset) {
		l.buckets[key] = otpBucket{count: 1, reset: now.Add(l.window)}
		return true
	}
	if bucket.count >= l.max {
		return false
	}
	bucket.count++
	l.buckets[key] = bucket
	return true
}

// sweep descarta a lo sumo una vez por ventana las cubetas vencidas de
// destinatarios que no volvieron.
func (l *memoryOTPRateLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	for key, bucket := range l.buckets {
		if now.After(bucket.reset) {
			delete(l.buckets, key)
		}
	}
	l.swept = now
}

func otpQuotaKey(purpose domain.OTPType, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	return strings.ToLower(string(purpose)) + ":" + email
}
