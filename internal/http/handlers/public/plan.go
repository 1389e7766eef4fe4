package public

import (
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetPlans lists active plans for the pricing page.
func (h *Handler) GetPlans(c *gin.Context) {
	plans, err := h.PlanService.List(true)
	if err != nil {
		respondError(c, response.CodeInternal, "plan fetch failed", err)
		return
	}
	response.Success(c, plans)
}
