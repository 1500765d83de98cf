package service

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
)

// TokenService emite y valida pares de access/refresh tokens firmados
// con secretos distintos, y coordina la rotación contra el store.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	store         RefreshTokenStore
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Claims struct {
	UserID    string      `json:"uid"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if store == nil {
		store = NewMemoryRefreshTokenStore()
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        "finbridge-api",
		audience:      "finbridge-portal",
		store:         store,
	}
}

// GeneratePair firma un par nuevo y persiste el refresh token del usuario,
// reemplazando cualquier sesión anterior.
func (s *TokenService) GeneratePair(user domain.User) (TokenPair, error) {
	if len(s.accessSecret) == 0 || len(s.refreshSecret) == 0 {
		return TokenPair{}, ErrTokenInvalid
	}
	now := time.Now().UTC()
	access, err := s.signToken(user, now, s.accessTTL, "access", s.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signToken(user, now, s.refreshTTL, "refresh", s.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Save(user.ID, refresh, s.refreshTTL); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// ParseAccess valida firma, expiración, emisor y audiencia de un access token.
func (s *TokenService) ParseAccess(accessToken string) (Claims, error) {
	claims, err := s.parseToken(accessToken, s.accessSecret)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != "access" || !s.isValidClaims(claims) {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// RefreshPair rota la sesión: valida el refresh token contra el valor
// almacenado y emite un par nuevo. Un token reemplazado nunca vuelve a servir.
func (s *TokenService) RefreshPair(refreshToken string) (TokenPair, error) {
	claims, err := s.parseToken(refreshToken, s.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != "refresh" || !s.isValidClaims(claims) {
		return TokenPair{}, ErrTokenInvalid
	}

	stored, err := s.store.Get(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return TokenPair{}, ErrTokenNotFound
		}
		return TokenPair{}, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return TokenPair{}, ErrTokenNotFound
	}

	user := domain.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}
	return s.GeneratePair(user)
}

// Revoke elimina el refresh token vigente del usuario.
func (s *TokenService) Revoke(userID string) error {
	return s.store.Delete(userID)
}

func (s *TokenService) signToken(user domain.User, now time.Time, ttl time.Duration, tokenType string, secret []byte) (string, error) {
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) parseToken(tokenString string, secret []byte) (Claims, error) {
	if len(secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	if strings.TrimSpace(claims.Issuer) != s.issuer {
		return false
	}
	for _, aud := range claims.Audience {
		if aud == s.audience {
			return true
		}
	}
	return false
}
