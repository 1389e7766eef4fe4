package admin

import (
	handlershared "github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func contextAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

func contextAdminUsername(c *gin.Context) string {
	if value, ok := c.Get("admin_username"); ok {
		if username, ok := value.(string); ok {
			return username
		}
	}
	return ""
}

func contextRequestID(c *gin.Context) string {
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
