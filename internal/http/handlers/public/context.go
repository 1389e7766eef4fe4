package public

import (
	handlershared "github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func contextUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}
