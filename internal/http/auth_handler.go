package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/repository"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger   *zap.Logger
	authServ *service.AuthService
	tokens   *service.TokenService
}

func NewAuthHandler(logger *zap.Logger, authServ *service.AuthService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		authServ: authServ,
		tokens:   tokens,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName       string `json:"firstName" binding:"required,min=2,max=50"`
		LastName        string `json:"lastName" binding:"required,min=2,max=50"`
		Email           string `json:"email" binding:"required,email"`
		Phone           string `json:"phone" binding:"required,e164"`
		Password        string `json:"password" binding:"required,strongpassword"`
		ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
		DateOfBirth     string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
		Gender          string `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, "dateOfBirth must be YYYY-MM-DD")
			return
		}
		dob = &parsed
	}

	user, err := h.authServ.Register(c.Request.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		DateOfBirth: dob,
		Gender:      req.Gender,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(c, http.StatusConflict, "email or phone already registered", CodeDuplicateUser)
			return
		}
		h.logger.Error("register failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not register", CodeInternal)
		return
	}

	tokens, err := h.tokens.GeneratePair(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not issue tokens", CodeInternal)
		return
	}
	respondOK(c, http.StatusCreated, "registered", gin.H{"user": user, "tokens": tokens})
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	user, err := h.authServ.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "invalid email or password", CodeInvalidCredentials)
		case errors.Is(err, service.ErrAccountBlocked):
			respondError(c, http.StatusForbidden, "account is blocked", CodeAccountBlocked)
		case errors.Is(err, service.ErrAccountDeactivated):
			respondError(c, http.StatusForbidden, "account is deactivated", CodeAccountDeactivated)
		default:
			h.logger.Error("login failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "could not login", CodeInternal)
		}
		return
	}

	tokens, err := h.tokens.GeneratePair(user)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not issue tokens", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "logged in", gin.H{"user": user, "tokens": tokens})
}

// Refresh maneja POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	tokens, err := h.tokens.RefreshPair(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			respondError(c, http.StatusUnauthorized, "refresh token expired", CodeTokenExpired)
		case errors.Is(err, service.ErrTokenNotFound):
			respondError(c, http.StatusUnauthorized, "refresh token revoked or superseded", CodeTokenInvalid)
		default:
			respondError(c, http.StatusUnauthorized, "invalid refresh token", CodeTokenInvalid)
		}
		return
	}
	respondOK(c, http.StatusOK, "token refreshed", gin.H{"tokens": tokens})
}

// Logout maneja POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing token", CodeTokenInvalid)
		return
	}
	if err := h.tokens.Revoke(claims.UserID); err != nil {
		h.logger.Error("logout failed", zap.String("user_id", claims.UserID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not logout", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "logged out", nil)
}

// Profile maneja GET /api/auth/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing token", CodeTokenInvalid)
		return
	}
	user, err := h.authServ.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user not found", CodeNotFound)
			return
		}
		h.logger.Error("profile failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not load profile", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "profile", gin.H{"user": user})
}

// ForgotPassword maneja POST /api/auth/forgot-password. La respuesta es la
// misma exista o no la cuenta.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	if err := h.authServ.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrRateLimited) {
			respondError(c, http.StatusTooManyRequests, "too many requests", CodeRateLimited)
			return
		}
		h.logger.Error("forgot password failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not process request", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "if the email exists, a reset code was sent", nil)
}

// ResetPassword maneja POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token           string `json:"token" binding:"required,len=6,numeric"`
		Password        string `json:"password" binding:"required,strongpassword"`
		ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	if err := h.authServ.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrOTPInvalid) {
			respondError(c, http.StatusBadRequest, "invalid or expired code", CodeOTPInvalid)
			return
		}
		h.logger.Error("reset password failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not reset password", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "password reset", nil)
}

// ChangePassword maneja POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing token", CodeTokenInvalid)
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,strongpassword"`
		ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	err := h.authServ.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "current password is incorrect", CodeInvalidCredentials)
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found", CodeNotFound)
		default:
			h.logger.Error("change password failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "could not change password", CodeInternal)
		}
		return
	}
	respondOK(c, http.StatusOK, "password changed", nil)
}

// VerifyEmail maneja POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", CodeValidation, bindingErrors(err)...)
		return
	}

	user, err := h.authServ.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, service.ErrOTPInvalid) {
			respondError(c, http.StatusBadRequest, "invalid or expired code", CodeOTPInvalid)
			return
		}
		h.logger.Error("verify email failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not verify email", CodeInternal)
		return
	}
	respondOK(c, http.StatusOK, "email verified", gin.H{"user": user})
}

// RequestEmailVerification maneja POST /api/auth/verify-email/request.
func (h *AuthHandler) RequestEmailVerification(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing token", CodeTokenInvalid)
		return
	}
	err := h.authServ.RequestEmailVerification(c.Request.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			respondError(c, http.StatusTooManyRequests, "too many requests", CodeRateLimited)
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "user not found", CodeNotFound)
		default:
			h.logger.Error("request email verification failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "could not send code", CodeInternal)
		}
		return
	}
	respondOK(c, http.StatusOK, "verification code sent", nil)
}

// bindingErrors convierte errores de validación en mensajes por campo.
func bindingErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"malformed request body"}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", field))
		case "e164":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid phone number", field))
		case "strongpassword":
			msgs = append(msgs, fmt.Sprintf("%s must have at least 8 characters with upper, lower, digit and symbol", field))
		case "eqfield":
			msgs = append(msgs, fmt.Sprintf("%s does not match", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return msgs
}
