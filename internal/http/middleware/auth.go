package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenworks/authkit/internal/token"
)

const userIDKey = "userID"

// Session validates the session cookie and attaches the authenticated user
// ID to the request context. A missing cookie and an invalid or expired one
// are reported as distinct unauthorized conditions.
type Session struct {
	Signer     *token.Signer
	CookieName string
}

// Validate ensures the request carries a valid session cookie.
func (m *Session) Validate(c *gin.Context) {
	cookie, err := c.Cookie(m.CookieName)
	if err != nil || cookie == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - no token provided."})
		return
	}

	userID, err := m.Signer.Verify(cookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized - invalid token."})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

// GetUserID exposes the authenticated user ID to handlers.
func GetUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
