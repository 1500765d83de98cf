package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

// OTPRepository define el contrato de persistencia para códigos de un solo uso.
type OTPRepository interface {
	// Create inserta el OTP e invalida los códigos previos sin usar del mismo tipo.
	Create(ctx context.Context, otp domain.OTP) error
	FindActive(ctx context.Context, code string, otpType domain.OTPType) (domain.OTP, error)
}

// PgOTPRepository implementa OTPRepository usando pgxpool.
type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) Create(ctx context.Context, otp domain.OTP) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`UPDATE otps SET used = TRUE WHERE user_id = $1 AND type = $2 AND NOT used`,
		otp.UserID, otp.Type,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO otps (id, user_id, code, type, expires_at, used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		otp.ID, otp.UserID, otp.Code, otp.Type, otp.ExpiresAt, otp.Used, otp.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PgOTPRepository) FindActive(ctx context.Context, code string, otpType domain.OTPType) (domain.OTP, error) {
	const query = `
		SELECT id, user_id, code, type, expires_at, used, created_at
		FROM otps
		WHERE code = $1 AND type = $2 AND NOT used AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1
	`
	var o domain.OTP
	err := r.pool.QueryRow(ctx, query, code, otpType).Scan(
		&o.ID,
		&o.UserID,
		&o.Code,
		&o.Type,
		&o.ExpiresAt,
		&o.Used,
		&o.CreatedAt,
	)
	if err != nil {
		return domain.OTP{}, err
	}
	return o, nil
}
