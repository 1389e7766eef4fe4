package admin

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateAffiliateRequest carries affiliate registration fields.
type CreateAffiliateRequest struct {
	Name           string  `json:"name" binding:"required"`
	Email          string  `json:"email" binding:"required"`
	CommissionRate float64 `json:"commission_rate"`
	Status         string  `json:"status"`
}

// CreateAffiliate registers an affiliate account.
func (h *Handler) CreateAffiliate(c *gin.Context) {
	var req CreateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	affiliate, err := h.AffiliateService.Create(service.CreateAffiliateInput{
		Name:           req.Name,
		Email:          req.Email,
		CommissionRate: models.NewMoneyFromFloat(req.CommissionRate),
		Status:         req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAffiliateEmailTaken):
			respondError(c, response.CodeConflict, "affiliate email taken", nil)
		case errors.Is(err, service.ErrAffiliateStatusInvalid):
			respondError(c, response.CodeBadRequest, "affiliate status invalid", nil)
		default:
			respondError(c, response.CodeInternal, "affiliate create failed", err)
		}
		return
	}

	response.Success(c, affiliate)
}

// UpdateAffiliateRequest carries mutable affiliate profile fields.
type UpdateAffiliateRequest struct {
	Name           *string  `json:"name"`
	CommissionRate *float64 `json:"commission_rate"`
}

// UpdateAffiliate edits an affiliate's profile.
func (h *Handler) UpdateAffiliate(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req UpdateAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	affiliate, err := h.AffiliateService.Update(affiliateID, service.UpdateAffiliateInput{
		Name:           req.Name,
		CommissionRate: moneyPtr(req.CommissionRate),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAffiliateNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		default:
			respondError(c, response.CodeInternal, "affiliate update failed", err)
		}
		return
	}

	response.Success(c, affiliate)
}

// SetAffiliateStatusRequest carries a status transition.
type SetAffiliateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetAffiliateStatus moves an affiliate between pending, active, and
// suspended. Status never blocks historical bookkeeping.
func (h *Handler) SetAffiliateStatus(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req SetAffiliateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AffiliateService.SetStatus(affiliateID, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrAffiliateNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		case errors.Is(err, service.ErrAffiliateStatusInvalid):
			respondError(c, response.CodeBadRequest, "affiliate status invalid", nil)
		default:
			respondError(c, response.CodeInternal, "affiliate status change failed", err)
		}
		return
	}

	requestLog(c).Infow("affiliate_status_changed", "affiliate_id", affiliateID, "status", req.Status)
	response.Success(c, gin.H{"updated": true})
}

// GetAffiliate fetches one affiliate with derived stats.
func (h *Handler) GetAffiliate(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	affiliate, err := h.AffiliateService.Get(affiliateID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAffiliateNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		default:
			respondError(c, response.CodeInternal, "affiliate fetch failed", err)
		}
		return
	}
	response.Success(c, affiliate)
}

// GetAffiliates lists affiliates.
func (h *Handler) GetAffiliates(c *gin.Context) {
	page, pageSize := parsePagination(c)

	affiliates, total, err := h.AffiliateService.List(repository.AffiliateListFilter{
		Keyword:  c.Query("keyword"),
		Status:   c.Query("status"),
		Tier:     c.Query("tier"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "affiliate fetch failed", err)
		return
	}

	response.SuccessWithPage(c, affiliates, response.NewPagination(page, pageSize, total))
}

// GetAffiliateCoupons lists the coupons bound to an affiliate.
func (h *Handler) GetAffiliateCoupons(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	page, pageSize := parsePagination(c)

	coupons, total, err := h.AffiliateService.ListCoupons(affiliateID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "affiliate coupon fetch failed", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}

// GetAffiliateReferrals lists an affiliate's referral records.
func (h *Handler) GetAffiliateReferrals(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	page, pageSize := parsePagination(c)

	referrals, total, err := h.AffiliateService.ListReferrals(affiliateID, c.Query("status"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "referral fetch failed", err)
		return
	}
	response.SuccessWithPage(c, referrals, response.NewPagination(page, pageSize, total))
}

// GetAffiliateCommissionEntries lists an affiliate's commission ledger.
func (h *Handler) GetAffiliateCommissionEntries(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	page, pageSize := parsePagination(c)

	entries, total, err := h.AffiliateService.ListCommissionEntries(affiliateID, c.Query("kind"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "commission entry fetch failed", err)
		return
	}
	response.SuccessWithPage(c, entries, response.NewPagination(page, pageSize, total))
}

// RefreshAffiliateStats recomputes derived stats, asynchronously when the
// queue is up.
func (h *Handler) RefreshAffiliateStats(c *gin.Context) {
	affiliateID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueAffiliateStatsRefresh(affiliateID); err == nil {
			response.Success(c, gin.H{"enqueued": true})
			return
		}
		requestLog(c).Warnw("affiliate_stats_refresh_enqueue_failed", "affiliate_id", affiliateID)
	}

	if err := h.AffiliateService.RefreshStats(affiliateID); err != nil {
		switch {
		case errors.Is(err, service.ErrAffiliateNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		default:
			respondError(c, response.CodeInternal, "stats refresh failed", err)
		}
		return
	}
	response.Success(c, gin.H{"refreshed": true})
}
