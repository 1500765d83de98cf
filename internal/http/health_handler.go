package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reporta el estado de las dependencias del servicio.
type HealthHandler struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, redis: redisClient}
}

// Check maneja GET /api/health. Devuelve 503 si alguna dependencia
// configurada no responde.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := gin.H{}
	healthy := true

	if h.pool != nil && h.pool.Ping(ctx) == nil {
		services["database"] = "up"
	} else {
		services["database"] = "down"
		healthy = false
	}

	switch {
	case h.redis == nil:
		services["redis"] = "disabled"
	case h.redis.Ping(ctx).Err() == nil:
		services["redis"] = "up"
	default:
		services["redis"] = "down"
		healthy = false
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "services": services})
}
