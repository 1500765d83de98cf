package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound indica que no hay refresh token vigente para el usuario.
var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshTokenStore guarda el refresh token vigente por usuario.
// Una clave por usuario: un segundo login reemplaza la sesión anterior.
type RefreshTokenStore interface {
	Save(userID, token string, ttl time.Duration) error
	Get(userID string) (string, error)
	Delete(userID string) error
}

type memoryRefreshTokenStore struct {
	mu    sync.Mutex
	items map[string]memoryToken
}

type memoryToken struct {
	token     string
	expiresAt time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		items: make(map[string]memoryToken),
	}
}

func (s *memoryRefreshTokenStore) Save(userID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	s.items[userID] = memoryToken{
		token:     token,
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

func (s *memoryRefreshTokenStore) Get(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[userID]
	if !ok {
		return "", ErrTokenNotFound
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, userID)
		return "", ErrTokenNotFound
	}
	return entry.token, nil
}

func (s *memoryRefreshTokenStore) Delete(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
	return nil
}

type redisRefreshTokenStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{
		client: client,
		prefix: "refresh_token:",
	}
}

func (s *redisRefreshTokenStore) Save(userID, token string, ttl time.Duration) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+userID, token, ttl).Err()
}

func (s *redisRefreshTokenStore) Get(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrTokenNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	value, err := s.client.Get(ctx, s.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *redisRefreshTokenStore) Delete(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+userID).Err()
}
