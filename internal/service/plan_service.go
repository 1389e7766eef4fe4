package service

import (
	"strings"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
)

// PlanService manages the subscription plan catalog.
type PlanService struct {
	planRepo repository.PlanRepository
}

// NewPlanService creates a plan service.
func NewPlanService(planRepo repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// CreatePlanInput carries plan creation fields.
type CreatePlanInput struct {
	Code         string
	Name         string
	Description  string
	PriceMonthly models.Money
	PriceYearly  models.Money
	SortOrder    int
}

// Create inserts a plan.
func (s *PlanService) Create(input CreatePlanInput) (*models.Plan, error) {
	plan := &models.Plan{
		Code:         strings.ToLower(strings.TrimSpace(input.Code)),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		PriceMonthly: input.PriceMonthly,
		PriceYearly:  input.PriceYearly,
		IsActive:     true,
		SortOrder:    input.SortOrder,
	}
	if plan.Code == "" || plan.Name == "" {
		return nil, ErrPlanNotFound
	}
	if err := s.planRepo.Create(plan); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPlanCodeTaken
		}
		return nil, err
	}
	return plan, nil
}

// UpdatePlanInput carries mutable plan fields. Nil means keep.
type UpdatePlanInput struct {
	Name         *string
	Description  *string
	PriceMonthly *models.Money
	PriceYearly  *models.Money
	IsActive     *bool
	SortOrder    *int
}

// Update edits a plan. The code is immutable after creation.
func (s *PlanService) Update(id uint, input UpdatePlanInput) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if input.Name != nil {
		plan.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		plan.Description = strings.TrimSpace(*input.Description)
	}
	if input.PriceMonthly != nil {
		plan.PriceMonthly = *input.PriceMonthly
	}
	if input.PriceYearly != nil {
		plan.PriceYearly = *input.PriceYearly
	}
	if input.IsActive != nil {
		plan.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		plan.SortOrder = *input.SortOrder
	}
	if err := s.planRepo.Update(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete soft-deletes a plan.
func (s *PlanService) Delete(id uint) error {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	return s.planRepo.Delete(id)
}

// Get fetches a plan by ID.
func (s *PlanService) Get(id uint) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// List returns plans; onlyActive filters the public catalog.
func (s *PlanService) List(onlyActive bool) ([]models.Plan, error) {
	return s.planRepo.List(onlyActive)
}

// PriceFor returns the plan price for a billing cycle.
func PriceFor(plan *models.Plan, billingCycle string) (models.Money, error) {
	switch billingCycle {
	case constants.BillingCycleMonthly:
		return plan.PriceMonthly, nil
	case constants.BillingCycleYearly:
		return plan.PriceYearly, nil
	default:
		return models.Money{}, ErrBillingCycleInvalid
	}
}
