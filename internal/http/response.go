package http

import "github.com/gin-gonic/gin"

// Envelope es la respuesta JSON estándar del API.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Code    string   `json:"code,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Códigos de error expuestos al cliente.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountBlocked     = "ACCOUNT_BLOCKED"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeDuplicateUser      = "DUPLICATE_USER"
	CodeOTPInvalid         = "OTP_INVALID"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message, code string, errs ...string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
		Code:    code,
		Errors:  errs,
	})
}

func abortError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Message: message,
		Code:    code,
	})
}
