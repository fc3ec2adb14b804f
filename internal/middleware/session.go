package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionChecker reports whether a driver is signed in.
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
}

// RequireSession rejects requests while no driver is signed in.
func RequireSession(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.IsAuthenticated(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		c.Next()
	}
}
