package public

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderRequest carries order preview and creation fields.
type OrderRequest struct {
	PlanID       uint   `json:"plan_id" binding:"required"`
	BillingCycle string `json:"billing_cycle" binding:"required"`
	CouponCode   string `json:"coupon_code"`
}

var orderErrorRules = []struct {
	target error
	code   int
	msg    string
}{
	{service.ErrPlanNotFound, response.CodeNotFound, "plan not found"},
	{service.ErrPlanInactive, response.CodeBadRequest, "plan inactive"},
	{service.ErrBillingCycleInvalid, response.CodeBadRequest, "billing cycle invalid"},
	{service.ErrCouponNotFound, response.CodeBadRequest, "coupon not found"},
	{service.ErrCouponInvalid, response.CodeBadRequest, "coupon invalid"},
	{service.ErrCouponCapReached, response.CodeBadRequest, "coupon usage cap reached"},
}

func respondOrderError(c *gin.Context, err error) {
	for _, rule := range orderErrorRules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, "order failed", err)
}

// PreviewOrder prices an order without persisting anything.
func (h *Handler) PreviewOrder(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	preview, err := h.OrderService.Preview(service.CreateOrderInput{
		UserID:       userID,
		PlanID:       req.PlanID,
		BillingCycle: req.BillingCycle,
		CouponCode:   req.CouponCode,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.Success(c, preview)
}

// CreateOrder places an order and starts the payment window.
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.Create(service.CreateOrderInput{
		UserID:       userID,
		PlanID:       req.PlanID,
		BillingCycle: req.BillingCycle,
		CouponCode:   req.CouponCode,
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	requestLog(c).Infow("order_created", "order_no", order.OrderNo, "user_id", userID)
	response.Success(c, order)
}

// GetOrders lists the customer's own orders.
func (h *Handler) GetOrders(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		UserID:   userID,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder fetches one of the customer's orders by order number.
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByOrderNo(c.Param("order_no"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}
	if order.UserID != userID {
		respondError(c, response.CodeNotFound, "order not found", nil)
		return
	}
	response.Success(c, order)
}

// CancelOrder cancels one of the customer's pending orders, releasing any
// referral hold on the coupon.
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	if err := h.OrderService.Cancel(c.Param("order_no"), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderNotPayable):
			respondError(c, response.CodeBadRequest, "order not cancellable", nil)
		default:
			respondError(c, response.CodeInternal, "order cancel failed", err)
		}
		return
	}
	response.Success(c, gin.H{"canceled": true})
}
