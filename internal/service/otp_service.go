package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/repository"
)

// ErrOTPInvalid cubre códigos inexistentes, usados o vencidos.
var ErrOTPInvalid = errors.New("otp invalid or expired")

const defaultOTPTTL = 15 * time.Minute

// OTPService genera y valida códigos numéricos de un solo uso.
type OTPService struct {
	otps     repository.OTPRepository
	settings repository.SystemConfigRepository
	ttl      time.Duration
}

func NewOTPService(otps repository.OTPRepository, settings repository.SystemConfigRepository, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &OTPService{
		otps:     otps,
		settings: settings,
		ttl:      ttl,
	}
}

// Generate emite un código de 6 dígitos; los códigos previos del mismo tipo
// quedan invalidados al persistir el nuevo.
func (s *OTPService) Generate(ctx context.Context, userID string, otpType domain.OTPType) (domain.OTP, error) {
	code, err := randomCode()
	if err != nil {
		return domain.OTP{}, err
	}

	now := time.Now().UTC()
	otp := domain.OTP{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      code,
		Type:      otpType,
		ExpiresAt: now.Add(s.expiry(ctx)),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return domain.OTP{}, err
	}
	return otp, nil
}

// Lookup devuelve el OTP vigente que coincide con el código. Marcarlo como
// usado ocurre junto con la mutación dependiente, en la misma transacción.
func (s *OTPService) Lookup(ctx context.Context, code string, otpType domain.OTPType) (domain.OTP, error) {
	code = strings.TrimSpace(code)
	if !isValidOTPCode(code) {
		return domain.OTP{}, ErrOTPInvalid
	}
	otp, err := s.otps.FindActive(ctx, code, otpType)
	if err != nil {
		return domain.OTP{}, ErrOTPInvalid
	}
	if time.Now().UTC().After(otp.ExpiresAt) {
		return domain.OTP{}, ErrOTPInvalid
	}
	return otp, nil
}

// expiry consulta otp_expiry_minutes en la configuración del sistema,
// con el TTL construido como respaldo.
func (s *OTPService) expiry(ctx context.Context) time.Duration {
	if s.settings == nil {
		return s.ttl
	}
	raw, err := s.settings.Get(ctx, domain.ConfigOTPExpiryMinutes)
	if err != nil {
		return s.ttl
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes <= 0 {
		return s.ttl
	}
	return time.Duration(minutes) * time.Minute
}

// randomCode dibuja un código uniforme en 100000–999999.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
