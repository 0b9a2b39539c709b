package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie carrying the web session token.
const SessionCookie = "session_token"

// RequireSession verifies the session cookie against the expected session
// type and injects identity into the request context. Admin-only routes
// pass SessionTypeAdmin.
func RequireSession(m *Manager, expected SessionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}

		claims, err := m.Verify(raw, expected, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		ctx := WithIdentity(c.Request.Context(), claims.UserID, claims.SessionType)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
