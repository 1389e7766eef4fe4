package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrders lists orders.
func (h *Handler) GetOrders(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		userID = uint(parsed)
	}

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		UserID:     userID,
		Status:     c.Query("status"),
		CouponCode: c.Query("coupon_code"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder fetches one order by id.
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.Get(orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}
	response.Success(c, order)
}

// GetOrderPayments lists the payment attempts recorded for an order.
func (h *Handler) GetOrderPayments(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	payments, err := h.PaymentService.ListByOrder(orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "payment fetch failed", err)
		return
	}
	response.Success(c, payments)
}

// GetSubscriptions lists subscriptions.
func (h *Handler) GetSubscriptions(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		userID = uint(parsed)
	}

	subscriptions, total, err := h.SubscriptionService.List(repository.SubscriptionListFilter{
		UserID:   userID,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "subscription fetch failed", err)
		return
	}
	response.SuccessWithPage(c, subscriptions, response.NewPagination(page, pageSize, total))
}
