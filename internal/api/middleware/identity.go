package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/jafarshop/cartapi/internal/config"
	"github.com/jafarshop/cartapi/internal/domain"
)

const (
	identityContextKey = "identity"

	// SessionHeader carries the guest session id for unauthenticated carts
	SessionHeader = "X-Session-Id"
)

// Identity resolves the request's cart owner. A valid bearer token yields a
// user identity; an absent or invalid token falls back to the guest session
// header instead of failing, so expired tokens never break cart reads. With
// neither present there is no stable owner key and the request is rejected.
func Identity(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := userFromBearer(c, cfg, logger); ok {
			c.Set(identityContextKey, domain.UserIdentity(userID))
			c.Next()
			return
		}

		if sessionID := strings.TrimSpace(c.GetHeader(SessionHeader)); sessionID != "" {
			c.Set(identityContextKey, domain.GuestIdentity(sessionID))
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "session required"})
	}
}

func userFromBearer(c *gin.Context, cfg *config.Config, logger *zap.Logger) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	tokenString := strings.TrimPrefix(auth, "Bearer ")

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		// fall back to guest rather than hard-failing
		logger.Debug("Bearer token rejected, falling back to guest", zap.Error(err))
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", false
	}
	return sub, true
}

// GetIdentityFromContext retrieves the resolved identity set by Identity
func GetIdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(identityContextKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}
