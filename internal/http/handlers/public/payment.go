package public

import (
	"errors"
	"io"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// signatureHeader carries the gateway's HMAC over the raw notification body.
const signatureHeader = "X-Gateway-Signature"

// InitiatePaymentRequest names the order to pay.
type InitiatePaymentRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// InitiatePayment records a payment attempt for a pending order.
func (h *Handler) InitiatePayment(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	payment, err := h.PaymentService.Initiate(req.OrderNo, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderNotPayable):
			respondError(c, response.CodeBadRequest, "order not payable", nil)
		default:
			respondError(c, response.CodeInternal, "payment initiate failed", err)
		}
		return
	}
	response.Success(c, payment)
}

// PaymentWebhook receives the gateway's asynchronous payment notification.
// The HMAC signature covers the raw body, so the body is read before any
// JSON binding.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.PaymentService.HandleWebhook(body, c.GetHeader(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignature):
			requestLog(c).Warnw("payment_webhook_bad_signature", "remote", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "signature invalid", nil)
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrPaymentAmountMismatch):
			respondError(c, response.CodeBadRequest, "amount mismatch", nil)
		default:
			respondError(c, response.CodeInternal, "webhook handling failed", err)
		}
		return
	}

	requestLog(c).Infow("payment_webhook_handled", "order_no", order.OrderNo, "status", order.Status)
	response.Success(c, gin.H{"order_no": order.OrderNo, "status": order.Status})
}
