package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const identityKey = "user_id"

// Identity resolves the acting user from the X-User-ID header, falling back
// to the configured demo user. There is no authentication here; the service
// runs behind a trusted frontend and the header is advisory.
func Identity(defaultUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if id == "" {
			id = defaultUserID
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func currentUser(c *gin.Context) (string, bool) {
	id := c.GetString(identityKey)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user identity missing"})
		return "", false
	}
	return id, true
}
