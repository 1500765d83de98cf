package domain

import "time"

// SystemConfiguration es un ajuste clave-valor sembrado una sola vez.
type SystemConfiguration struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Claves de configuración conocidas por el backend.
const (
	ConfigOTPExpiryMinutes   = "otp_expiry_minutes"
	ConfigMinLoanAmount      = "min_loan_amount"
	ConfigMaxLoanAmount      = "max_loan_amount"
	ConfigMaxLoanTenureMonth = "max_loan_tenure_months"
)
