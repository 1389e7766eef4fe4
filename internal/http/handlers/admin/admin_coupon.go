package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCouponRequest carries coupon creation fields.
type CreateCouponRequest struct {
	Code              string   `json:"code" binding:"required"`
	Description       string   `json:"description"`
	DiscountPercent   float64  `json:"discount_percent" binding:"required,gte=0,lte=100"`
	CommissionPercent *float64 `json:"commission_percent" binding:"omitempty,gte=0,lte=100"`
	MinAmount         float64  `json:"min_amount" binding:"gte=0"`
	MaxUses           int      `json:"max_uses" binding:"gte=0"`
	AffiliateID       *uint    `json:"affiliate_id"`
	ExpiresAt         string   `json:"expires_at"`
}

// CreateCoupon creates a discount coupon.
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	expiresAt, err := parseTimeNullable(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon, err := h.CouponAdminService.Create(service.CreateCouponInput{
		Code:              req.Code,
		Description:       req.Description,
		DiscountPercent:   models.NewMoneyFromFloat(req.DiscountPercent),
		CommissionPercent: moneyPtr(req.CommissionPercent),
		MinAmount:         models.NewMoneyFromFloat(req.MinAmount),
		MaxUses:           req.MaxUses,
		AffiliateID:       req.AffiliateID,
		ExpiresAt:         expiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "coupon invalid", nil)
		case errors.Is(err, service.ErrCouponCodeTaken):
			respondError(c, response.CodeConflict, "coupon code taken", nil)
		case errors.Is(err, service.ErrAffiliateNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		default:
			respondError(c, response.CodeInternal, "coupon create failed", err)
		}
		return
	}

	response.Success(c, coupon)
}

// CreateAffiliateCodeRequest carries affiliate code generation fields.
type CreateAffiliateCodeRequest struct {
	Code              string   `json:"code"`
	Description       string   `json:"description"`
	DiscountPercent   float64  `json:"discount_percent" binding:"required,gte=0,lte=100"`
	CommissionPercent *float64 `json:"commission_percent" binding:"omitempty,gte=0,lte=100"`
	MinAmount         float64  `json:"min_amount" binding:"gte=0"`
	MaxUses           int      `json:"max_uses" binding:"gte=0"`
	ExpiresAt         string   `json:"expires_at"`
}

// CreateAffiliateCode creates a referral coupon bound to an affiliate. When
// no code is supplied one is generated from the affiliate's initials.
func (h *Handler) CreateAffiliateCode(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req CreateAffiliateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	expiresAt, err := parseTimeNullable(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon, err := h.CouponAdminService.CreateAffiliateCode(service.CreateAffiliateCodeInput{
		AffiliateID:       affiliateID,
		Code:              req.Code,
		Description:       req.Description,
		DiscountPercent:   models.NewMoneyFromFloat(req.DiscountPercent),
		CommissionPercent: moneyPtr(req.CommissionPercent),
		MinAmount:         models.NewMoneyFromFloat(req.MinAmount),
		MaxUses:           req.MaxUses,
		ExpiresAt:         expiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "coupon invalid", nil)
		case errors.Is(err, service.ErrAffiliateNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		case errors.Is(err, service.ErrCouponCodeTaken):
			respondError(c, response.CodeConflict, "coupon code taken", nil)
		default:
			respondError(c, response.CodeInternal, "affiliate code create failed", err)
		}
		return
	}

	requestLog(c).Infow("affiliate_code_created",
		"affiliate_id", affiliateID, "coupon_id", coupon.ID, "code", coupon.Code)
	response.Success(c, coupon)
}

// UpdateCouponRequest carries mutable coupon fields. Absent fields keep
// their value; clear flags reset nullable ones.
type UpdateCouponRequest struct {
	Description       *string  `json:"description"`
	DiscountPercent   *float64 `json:"discount_percent" binding:"omitempty,gte=0,lte=100"`
	CommissionPercent *float64 `json:"commission_percent" binding:"omitempty,gte=0,lte=100"`
	ClearCommission   bool     `json:"clear_commission"`
	MinAmount         *float64 `json:"min_amount" binding:"omitempty,gte=0"`
	MaxUses           *int     `json:"max_uses" binding:"omitempty,gte=0"`
	IsActive          *bool    `json:"is_active"`
	ExpiresAt         string   `json:"expires_at"`
	ClearExpiresAt    bool     `json:"clear_expires_at"`
}

// UpdateCoupon edits a coupon. Code and affiliate link are immutable.
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	expiresAt, err := parseTimeNullable(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	coupon, err := h.CouponAdminService.Update(couponID, service.UpdateCouponInput{
		Description:       req.Description,
		DiscountPercent:   moneyPtr(req.DiscountPercent),
		CommissionPercent: moneyPtr(req.CommissionPercent),
		ClearCommission:   req.ClearCommission,
		MinAmount:         moneyPtr(req.MinAmount),
		MaxUses:           req.MaxUses,
		IsActive:          req.IsActive,
		ExpiresAt:         expiresAt,
		ClearExpiresAt:    req.ClearExpiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "coupon invalid", nil)
		default:
			respondError(c, response.CodeInternal, "coupon update failed", err)
		}
		return
	}

	response.Success(c, coupon)
}

// DeactivateCoupon retires a coupon without deleting it.
func (h *Handler) DeactivateCoupon(c *gin.Context) {
	couponID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CouponAdminService.Deactivate(couponID); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		default:
			respondError(c, response.CodeInternal, "coupon deactivate failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deactivated": true})
}

// DeleteCoupon soft-deletes a coupon.
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CouponAdminService.Delete(couponID); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		default:
			respondError(c, response.CodeInternal, "coupon delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetCoupon fetches one coupon.
func (h *Handler) GetCoupon(c *gin.Context) {
	couponID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	coupon, err := h.CouponAdminService.Get(couponID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		default:
			respondError(c, response.CodeInternal, "coupon fetch failed", err)
		}
		return
	}
	response.Success(c, coupon)
}

// GetCoupons lists coupons.
func (h *Handler) GetCoupons(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var affiliateID uint
	if raw := strings.TrimSpace(c.Query("affiliate_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		affiliateID = uint(parsed)
	}
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		isActive = &parsed
	}

	coupons, total, err := h.CouponAdminService.List(repository.CouponListFilter{
		Code:        c.Query("code"),
		AffiliateID: affiliateID,
		IsActive:    isActive,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "coupon fetch failed", err)
		return
	}

	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("id is required")
	}
	return uint(id), nil
}

func parseQueryUint(raw string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed == 0 {
		return 0, errors.New("id is required")
	}
	return uint(parsed), nil
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func moneyPtr(value *float64) *models.Money {
	if value == nil {
		return nil
	}
	money := models.NewMoneyFromFloat(*value)
	return &money
}
