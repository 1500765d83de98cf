package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

// SystemConfigRepository expone los ajustes clave-valor del sistema.
type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Seed(ctx context.Context, defaults []domain.SystemConfiguration) error
}

// PgSystemConfigRepository implementa SystemConfigRepository usando pgxpool.
type PgSystemConfigRepository struct {
	pool *pgxpool.Pool
}

func NewPgSystemConfigRepository(pool *pgxpool.Pool) *PgSystemConfigRepository {
	return &PgSystemConfigRepository{pool: pool}
}

func (r *PgSystemConfigRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM system_configurations WHERE key = $1`
	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	return value, err
}

// Seed inserta los valores por defecto sin pisar ajustes ya existentes.
func (r *PgSystemConfigRepository) Seed(ctx context.Context, defaults []domain.SystemConfiguration) error {
	const query = `
		INSERT INTO system_configurations (key, value, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`
	now := time.Now().UTC()
	for _, cfg := range defaults {
		if _, err := r.pool.Exec(ctx, query, cfg.Key, cfg.Value, cfg.Description, now); err != nil {
			return err
		}
	}
	return nil
}
