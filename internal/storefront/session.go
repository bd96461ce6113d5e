package storefront

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	sessionCookie = "sid"
	sessionKey    = "session_id"

	maxSessionIDLen = 128
	sessionMaxAge   = 30 * 24 * 60 * 60
)

// Session resolves the session id from the X-Session-ID header or the sid
// cookie, issuing a new one when neither is usable.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				id = cookie
			}
		}
		if id == "" || len(id) > maxSessionIDLen {
			id = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", false, true)
		}

		c.Set(sessionKey, id)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

// SessionID returns the id resolved by Session
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
