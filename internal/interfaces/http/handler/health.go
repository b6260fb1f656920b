package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/interfaces/http/dto"
)

const healthPingTimeout = 2 * time.Second

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db      Pinger
	service string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

// Check answers 200 when the database responds and 503 otherwise
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			"UNHEALTHY", "Database unavailable", c.GetString(logger.GinRequestIDKey),
		))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"status":  "healthy",
		"service": h.service,
	}))
}
