package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/config"
)

// NewRedisClient conecta con Redis y verifica la conexión con un ping.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
