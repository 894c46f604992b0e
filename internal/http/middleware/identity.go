package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDHeader carries the caller identity established by the upstream
// gateway. The service trusts it as-is; token verification happens before
// traffic reaches this process.
const userIDHeader = "X-User-ID"

// maxUserIDLength rejects obviously bogus identities before they reach
// storage lookups.
const maxUserIDLength = 128

// Identity extracts the caller's user ID from the X-User-ID header and
// stores it in the Gin context under "userID". A missing header leaves the
// request anonymous; handlers that require an identity enforce that
// themselves.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userIDHeader))
		if len(uid) > maxUserIDLength {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": asString(rid),
				"code":       "invalid_user_id",
				"message":    "user id header exceeds maximum length",
			})
			return
		}
		if uid != "" {
			c.Set("userID", uid)
		}
		c.Next()
	}
}
