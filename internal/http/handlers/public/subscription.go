package public

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSubscription returns the customer's current subscription, if any.
func (h *Handler) GetSubscription(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	subscription, err := h.SubscriptionService.Current(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "subscription fetch failed", err)
		return
	}
	if subscription == nil {
		response.Success(c, nil)
		return
	}
	response.Success(c, subscription)
}

// CancelSubscription stops the customer's active subscription at the end of
// the paid period.
func (h *Handler) CancelSubscription(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	if err := h.SubscriptionService.Cancel(userID); err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			respondError(c, response.CodeNotFound, "no active subscription", nil)
		default:
			respondError(c, response.CodeInternal, "subscription cancel failed", err)
		}
		return
	}
	response.Success(c, gin.H{"canceled": true})
}
