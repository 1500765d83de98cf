package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/email"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/repository"
)

// AuthService coordina registro, login y los flujos de recuperación.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	hasher      *PasswordHasher
	otps        *OTPService
	sessions    RefreshTokenStore
	emailSender email.Sender
	otpLimiter  OTPRateLimiter
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrRateLimited        = errors.New("rate limited")
)

func NewAuthService(
	logger *zap.Logger,
	users repository.UserRepository,
	hasher *PasswordHasher,
	otps *OTPService,
	sessions RefreshTokenStore,
	emailSender email.Sender,
	otpLimiter OTPRateLimiter,
) *AuthService {
	if otpLimiter == nil {
		otpLimiter = NewOTPRateLimiter(defaultOTPTTL, 3)
	}
	if sessions == nil {
		sessions = NewMemoryRefreshTokenStore()
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		hasher:      hasher,
		otps:        otps,
		sessions:    sessions,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
	}
}

type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Password    string
	DateOfBirth *time.Time
	Gender      string
}

// Register crea la cuenta y dispara el OTP de verificación de email.
// Un duplicado de email o teléfono devuelve repository.ErrDuplicate sin
// mutar nada.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        normalizeEmail(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		KYCStatus:    domain.KYCPending,
		IsActive:     true,
		DateOfBirth:  input.DateOfBirth,
		Gender:       strings.TrimSpace(input.Gender),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	// El fallo en el envío del OTP no aborta el registro.
	if err := s.issueOTP(ctx, user, domain.OTPEmailVerification); err != nil {
		s.logger.Warn("verification otp after register failed",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// Login valida credenciales sin revelar cuál campo falló.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return domain.User{}, ErrAccountBlocked
	}
	if !user.IsActive {
		return domain.User{}, ErrAccountDeactivated
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	return user, nil
}

// Profile devuelve el usuario autenticado.
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// ForgotPassword responde igual exista o no la cuenta, para no permitir
// enumeración de emails. Solo el rate limit se expone al llamador.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return nil
	}
	if !s.otpLimiter.Allow(domain.OTPPasswordReset, emailAddr) {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("forgot password lookup failed", zap.Error(err))
		}
		return nil
	}

	if err := s.issueOTP(ctx, user, domain.OTPPasswordReset); err != nil {
		s.logger.Warn("password reset otp failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword consume el OTP, fija la contraseña nueva y revoca la sesión.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	otp, err := s.otps.Lookup(ctx, code, domain.OTPPasswordReset)
	if err != nil {
		return err
	}
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.ResetPassword(ctx, otp.UserID, otp.ID, passwordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOTPInvalid
		}
		return err
	}
	if err := s.sessions.Delete(otp.UserID); err != nil {
		s.logger.Warn("revoke session after reset failed", zap.String("user_id", otp.UserID), zap.Error(err))
	}
	return nil
}

// ChangePassword exige la contraseña actual y revoca la sesión vigente.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}
	if err := s.sessions.Delete(user.ID); err != nil {
		s.logger.Warn("revoke session after change failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// VerifyEmail consume el OTP de verificación y marca el email del usuario.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (domain.User, error) {
	otp, err := s.otps.Lookup(ctx, code, domain.OTPEmailVerification)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.users.MarkEmailVerified(ctx, otp.UserID, otp.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrOTPInvalid
		}
		return domain.User{}, err
	}
	return s.Profile(ctx, otp.UserID)
}

// RequestEmailVerification reemite el OTP de verificación para el usuario autenticado.
func (s *AuthService) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if !s.otpLimiter.Allow(domain.OTPEmailVerification, user.Email) {
		return ErrRateLimited
	}
	return s.issueOTP(ctx, user, domain.OTPEmailVerification)
}

func (s *AuthService) issueOTP(ctx context.Context, user domain.User, otpType domain.OTPType) error {
	otp, err := s.otps.Generate(ctx, user.ID, otpType)
	if err != nil {
		return err
	}
	return s.emailSender.SendOTP(ctx, user.Email, otpType, otp.Code, otp.ExpiresAt)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
