package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

// ErrDuplicate indica una violación de unicidad (email o teléfono ya registrado).
var ErrDuplicate = errors.New("duplicate record")

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// ResetPassword consume el OTP y actualiza la contraseña en una sola transacción.
	ResetPassword(ctx context.Context, id, otpID, passwordHash string) error
	// MarkEmailVerified consume el OTP y marca el email como verificado en una sola transacción.
	MarkEmailVerified(ctx context.Context, id, otpID string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, first_name, last_name, email, phone, password_hash, role, kyc_status,
	email_verified, phone_verified, is_active, is_blocked, date_of_birth, gender,
	last_login_at, created_at, updated_at
`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Role,
		&u.KYCStatus,
		&u.EmailVerified,
		&u.PhoneVerified,
		&u.IsActive,
		&u.IsBlocked,
		&u.DateOfBirth,
		&u.Gender,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.KYCStatus,
		user.EmailVerified,
		user.PhoneVerified,
		user.IsActive,
		user.IsBlocked,
		user.DateOfBirth,
		user.Gender,
		user.LastLoginAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) ResetPassword(ctx context.Context, id, otpID, passwordHash string) error {
	return r.consumeOTPAnd(ctx, otpID,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash,
	)
}

func (r *PgUserRepository) MarkEmailVerified(ctx context.Context, id, otpID string) error {
	return r.consumeOTPAnd(ctx, otpID,
		`UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1`,
		id,
	)
}

// consumeOTPAnd marca el OTP como usado y ejecuta la mutación dependiente
// dentro de la misma transacción. Si el OTP ya fue consumido, nada se aplica.
func (r *PgUserRepository) consumeOTPAnd(ctx context.Context, otpID, mutation string, args ...any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE otps SET used = TRUE WHERE id = $1 AND NOT used AND expires_at > now()`,
		otpID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	tag, err = tx.Exec(ctx, mutation, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}
