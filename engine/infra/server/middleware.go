package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/auralab/aura/engine/infra/server/router"
	"github.com/auralab/aura/pkg/config"
	"github.com/auralab/aura/pkg/logger"
	"github.com/gin-gonic/gin"
)

func loggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))
		c.Next()
		log.Info("Request completed",
			"method", c.Request.Method,
			"path", path,
			"status_code", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-API-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// adminAuth guards privileged routes behind the configured API key hash.
// The key travels in X-Admin-API-Key and is compared as sha256 hex.
func adminAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || cfg.AdminAPIKeyHash.Value() == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, router.Response{
				Success: false,
				Error: &router.RequestError{
					Kind:    "FORBIDDEN",
					Message: "admin API is not configured",
				},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		sum := sha256.Sum256([]byte(c.GetHeader("X-Admin-API-Key")))
		got := hex.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.AdminAPIKeyHash.Value())) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, router.Response{
				Success: false,
				Error: &router.RequestError{
					Kind:    "UNAUTHORIZED",
					Message: "invalid admin API key",
				},
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		c.Next()
	}
}
