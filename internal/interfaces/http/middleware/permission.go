package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequirePermission aborts with 403 unless the JWT claims carry permission.
// It must run after the JWT middleware.
func RequirePermission(permission string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims != nil && claims.HasPermission(permission) {
			c.Next()
			return
		}

		userID := ""
		if claims != nil {
			userID = claims.UserID
		}
		log.Warn("Permission denied",
			zap.String("user_id", userID),
			zap.String("required_permission", permission),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)

		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden,
			"Access denied: insufficient permissions",
			c.GetString(logger.GinRequestIDKey),
		))
	}
}
