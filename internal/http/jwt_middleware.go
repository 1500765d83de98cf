package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/service"
)

const authClaimsKey = "auth_claims"

// JWTAuthMiddleware valida access tokens y guarda los claims en el contexto.
func JWTAuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			abortError(c, http.StatusInternalServerError, "jwt not configured", CodeInternal)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abortError(c, http.StatusUnauthorized, "missing token", CodeTokenInvalid)
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.ParseAccess(token)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				abortError(c, http.StatusUnauthorized, "token expired", CodeTokenExpired)
				return
			}
			abortError(c, http.StatusUnauthorized, "invalid token", CodeTokenInvalid)
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// RequireRoles corta con 403 si el rol del token no está en la lista.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "missing token", CodeTokenInvalid)
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abortError(c, http.StatusForbidden, "insufficient role", CodeForbidden)
	}
}

// GetAuthClaims obtiene los claims del JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
