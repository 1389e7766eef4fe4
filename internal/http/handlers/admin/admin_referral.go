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

// CreateReferralRequest carries a manual referral record.
type CreateReferralRequest struct {
	AffiliateID uint   `json:"affiliate_id" binding:"required"`
	CouponCode  string `json:"coupon_code" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Medium      string `json:"medium"`
}

// CreateReferral records a prospect touch by hand. Normal referrals arrive
// through checkout and signup; this covers imports and support fixes.
func (h *Handler) CreateReferral(c *gin.Context) {
	var req CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	referral, err := h.ReferralService.CreateReferral(service.CreateReferralInput{
		AffiliateID: req.AffiliateID,
		CouponCode:  req.CouponCode,
		Email:       req.Email,
		Name:        req.Name,
		Source:      req.Source,
		Medium:      req.Medium,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "coupon not found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "coupon invalid", nil)
		case errors.Is(err, service.ErrReferralMismatch):
			respondError(c, response.CodeBadRequest, "coupon does not belong to affiliate", nil)
		default:
			respondError(c, response.CodeInternal, "referral create failed", err)
		}
		return
	}

	response.Success(c, referral)
}

// GetReferral fetches one referral.
func (h *Handler) GetReferral(c *gin.Context) {
	referralID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	referral, err := h.ReferralService.Get(referralID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferralNotFound):
			respondError(c, response.CodeNotFound, "referral not found", nil)
		default:
			respondError(c, response.CodeInternal, "referral fetch failed", err)
		}
		return
	}
	response.Success(c, referral)
}

// GetReferrals lists referrals across all affiliates.
func (h *Handler) GetReferrals(c *gin.Context) {
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

	referrals, total, err := h.ReferralService.List(repository.ReferralListFilter{
		AffiliateID: affiliateID,
		CouponCode:  c.Query("coupon_code"),
		Email:       c.Query("email"),
		Status:      c.Query("status"),
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "referral fetch failed", err)
		return
	}
	response.SuccessWithPage(c, referrals, response.NewPagination(page, pageSize, total))
}
