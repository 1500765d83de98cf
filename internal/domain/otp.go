package domain

import "time"

// OTPType distingue el propósito de un código de un solo uso.
type OTPType string

const (
	OTPEmailVerification OTPType = "EMAIL_VERIFICATION"
	OTPPasswordReset     OTPType = "PASSWORD_RESET"
)

// OTP es un código numérico de un solo uso con vencimiento.
type OTP struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Code      string    `json:"-"`
	Type      OTPType   `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
