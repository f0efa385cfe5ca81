package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/cartapi/internal/config"
)

// AdminKeyHeader carries the back-office API key
const AdminKeyHeader = "X-Admin-Key"

// AdminAuth guards back-office routes by comparing the presented key against
// the configured bcrypt hash
func AdminAuth(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(cfg.Admin.KeyHash), []byte(key)); err != nil {
			logger.Warn("Admin key rejected", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}
