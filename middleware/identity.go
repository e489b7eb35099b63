package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the caller identity, set by the platform gateway
// after authentication. This service authorizes (who may act on a
// connection) but never authenticates; identity storage is an external
// collaborator.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// IdentityMiddleware rejects requests without a caller identity and
// exposes it to handlers via the gin context.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Caller identity required"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the caller identity set by IdentityMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
