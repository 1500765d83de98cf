package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/SoumithVardhan/FinBridge-sub000/internal/config"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/db"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/domain"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/email"
	apihttp "github.com/SoumithVardhan/FinBridge-sub000/internal/http"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/repository"
	"github.com/SoumithVardhan/FinBridge-sub000/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	if cfg.Environment == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = db.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory stores", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	otpRepo := repository.NewPgOTPRepository(pool)
	configRepo := repository.NewPgSystemConfigRepository(pool)

	if err := configRepo.Seed(ctx, defaultSystemConfig(cfg)); err != nil {
		logger.Warn("seed system configuration failed", zap.Error(err))
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		tokenStore  service.RefreshTokenStore
		otpLimiter  service.OTPRateLimiter
		httpLimiter apihttp.RateLimiter
	)
	rateWindow := time.Duration(cfg.RateLimitWindowMinutes) * time.Minute
	if redisClient != nil {
		tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		otpLimiter = service.NewRedisOTPRateLimiter(redisClient, 10*time.Minute, 3)
		httpLimiter = apihttp.NewRedisRateLimiter(redisClient, cfg.RateLimitMax, rateWindow)
	} else {
		tokenStore = service.NewMemoryRefreshTokenStore()
		otpLimiter = service.NewOTPRateLimiter(10*time.Minute, 3)
		httpLimiter = apihttp.NewMemoryRateLimiter(cfg.RateLimitMax, rateWindow)
	}

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokenSvc := service.NewTokenService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLHours)*time.Hour,
		tokenStore,
	)
	otpSvc := service.NewOTPService(otpRepo, configRepo, time.Duration(cfg.OTPExpiryMinutes)*time.Minute)
	authSvc := service.NewAuthService(logger, userRepo, hasher, otpSvc, tokenStore, emailSender, otpLimiter)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	apihttp.RegisterMetrics(registry)

	apihttp.RegisterValidators()

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Logger:         logger,
		Auth:           apihttp.NewAuthHandler(logger, authSvc, tokenSvc),
		Calculators:    apihttp.NewCalculatorHandler(logger),
		Health:         apihttp.NewHealthHandler(pool, redisClient),
		Tokens:         tokenSvc,
		Limiter:        httpLimiter,
		AllowedOrigins: cfg.CORSOrigins,
		Metrics:        registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func defaultSystemConfig(cfg *config.Config) []domain.SystemConfiguration {
	return []domain.SystemConfiguration{
		{Key: domain.ConfigOTPExpiryMinutes, Value: strconv.Itoa(cfg.OTPExpiryMinutes), Description: "OTP validity window in minutes"},
		{Key: domain.ConfigMinLoanAmount, Value: "50000", Description: "Minimum loan amount in INR"},
		{Key: domain.ConfigMaxLoanAmount, Value: "10000000", Description: "Maximum loan amount in INR"},
		{Key: domain.ConfigMaxLoanTenureMonth, Value: "360", Description: "Maximum loan tenure in months"},
	}
}
