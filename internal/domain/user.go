package domain

import "time"

// Role define el rol de un usuario dentro del portal.
type Role string

const (
	RoleUser        Role = "USER"
	RoleAdmin       Role = "ADMIN"
	RoleKYCOfficer  Role = "KYC_OFFICER"
	RoleLoanOfficer Role = "LOAN_OFFICER"
)

// KYCStatus refleja el estado de verificación de identidad del usuario.
type KYCStatus string

const (
	KYCPending    KYCStatus = "PENDING"
	KYCInProgress KYCStatus = "IN_PROGRESS"
	KYCVerified   KYCStatus = "VERIFIED"
	KYCRejected   KYCStatus = "REJECTED"
)

type User struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	KYCStatus     KYCStatus  `json:"kyc_status"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	IsActive      bool       `json:"is_active"`
	IsBlocked     bool       `json:"is_blocked"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
