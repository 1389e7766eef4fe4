package admin

import (
	"errors"
	"strconv"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePlanRequest carries plan creation fields.
type CreatePlanRequest struct {
	Code         string  `json:"code" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	PriceMonthly float64 `json:"price_monthly" binding:"required"`
	PriceYearly  float64 `json:"price_yearly" binding:"required"`
	SortOrder    int     `json:"sort_order"`
}

// CreatePlan inserts a subscription plan.
func (h *Handler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	plan, err := h.PlanService.Create(service.CreatePlanInput{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		PriceMonthly: models.NewMoneyFromFloat(req.PriceMonthly),
		PriceYearly:  models.NewMoneyFromFloat(req.PriceYearly),
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanCodeTaken):
			respondError(c, response.CodeConflict, "plan code taken", nil)
		default:
			respondError(c, response.CodeInternal, "plan create failed", err)
		}
		return
	}

	response.Success(c, plan)
}

// UpdatePlanRequest carries mutable plan fields.
type UpdatePlanRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	PriceMonthly *float64 `json:"price_monthly"`
	PriceYearly  *float64 `json:"price_yearly"`
	IsActive     *bool    `json:"is_active"`
	SortOrder    *int     `json:"sort_order"`
}

// UpdatePlan edits a plan. The code is immutable.
func (h *Handler) UpdatePlan(c *gin.Context) {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	plan, err := h.PlanService.Update(planID, service.UpdatePlanInput{
		Name:         req.Name,
		Description:  req.Description,
		PriceMonthly: moneyPtr(req.PriceMonthly),
		PriceYearly:  moneyPtr(req.PriceYearly),
		IsActive:     req.IsActive,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			respondError(c, response.CodeNotFound, "plan not found", nil)
		default:
			respondError(c, response.CodeInternal, "plan update failed", err)
		}
		return
	}

	response.Success(c, plan)
}

// DeletePlan soft-deletes a plan.
func (h *Handler) DeletePlan(c *gin.Context) {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.PlanService.Delete(planID); err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			respondError(c, response.CodeNotFound, "plan not found", nil)
		default:
			respondError(c, response.CodeInternal, "plan delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetAdminPlans lists all plans including inactive ones.
func (h *Handler) GetAdminPlans(c *gin.Context) {
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("only_active", "false"))
	plans, err := h.PlanService.List(onlyActive)
	if err != nil {
		respondError(c, response.CodeInternal, "plan fetch failed", err)
		return
	}
	response.Success(c, plans)
}
