package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/service"
)

// RouterDeps agrupa las dependencias del router.
type RouterDeps struct {
	Logger         *zap.Logger
	Auth           *AuthHandler
	Calculators    *CalculatorHandler
	Health         *HealthHandler
	Tokens         *service.TokenService
	Limiter        RateLimiter
	AllowedOrigins []string
	Metrics        *prometheus.Registry
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		zapLoggerMiddleware(deps.Logger),
		gin.Recovery(),
		CORSMiddleware(deps.AllowedOrigins),
		MetricsMiddleware(),
	)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(MetricsHandler(deps.Metrics)))
	}

	// Health queda fuera del rate limit para no bloquear los probes.
	r.GET("/api/health", deps.Health.Check)

	api := r.Group("/api", RateLimitMiddleware(deps.Logger, deps.Limiter))

	auth := api.Group("/auth")
	auth.POST("/register", deps.Auth.Register)
	auth.POST("/login", deps.Auth.Login)
	auth.POST("/refresh", deps.Auth.Refresh)
	auth.POST("/forgot-password", deps.Auth.ForgotPassword)
	auth.POST("/reset-password", deps.Auth.ResetPassword)
	auth.POST("/verify-email", deps.Auth.VerifyEmail)

	protected := auth.Group("", JWTAuthMiddleware(deps.Tokens))
	protected.POST("/logout", deps.Auth.Logout)
	protected.GET("/profile", deps.Auth.Profile)
	protected.POST("/change-password", deps.Auth.ChangePassword)
	protected.POST("/verify-email/request", deps.Auth.RequestEmailVerification)

	calculators := api.Group("/calculators")
	calculators.POST("/emi", deps.Calculators.EMI)
	calculators.POST("/sip", deps.Calculators.SIP)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
