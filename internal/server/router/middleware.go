package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/server/handlers"
)

// Caller roles set by the identity gateway in front of the API.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(handlers.CtxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(handlers.CtxRequestID)),
		}
		if role := c.GetString(handlers.CtxUserRole); role != "" {
			fields = append(fields, zap.String("role", role), zap.String("user_id", c.GetString(handlers.CtxUserID)))
		}
		logger.Info("request completed", fields...)
	}
}

// identityMiddleware reads the caller set by the gateway and rejects
// anonymous or unknown roles.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetHeader(headerUserRole)
		if role != RoleAdmin && role != RoleSupervisor {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Error: "missing or unknown caller role", Kind: "unauthorized"})
			return
		}
		c.Set(handlers.CtxUserRole, role)
		c.Set(handlers.CtxUserID, c.GetHeader(headerUserID))
		c.Next()
	}
}

func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, c.GetString(handlers.CtxUserRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, handlers.ErrorResponse{Error: "role not allowed", Kind: "forbidden"})
			return
		}
		c.Next()
	}
}
