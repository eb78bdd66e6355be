// internal/middleware/auth.go
package middleware

import (
	"budget-tracker/internal/auth"
	"budget-tracker/internal/domain"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = "user_id"
	UserKey   = "user"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(a Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		user, err := m.auth.Authenticate(c.Request.Context(), strings.TrimSpace(tokenStr))
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrInactive):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Inactive user"})
			return
		case errors.Is(err, auth.ErrInvalidToken):
			slog.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		default:
			slog.Error("authenticate failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}

		c.Set(UserIDKey, user.ID) // int64
		c.Set(UserKey, user)
		c.Next()
	}
}
