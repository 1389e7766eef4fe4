package repository

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"gorm.io/gorm"
)

// PlanRepository is the subscription plan data access interface.
type PlanRepository interface {
	GetByID(id uint) (*models.Plan, error)
	GetByCode(code string) (*models.Plan, error)
	Create(plan *models.Plan) error
	Update(plan *models.Plan) error
	Delete(id uint) error
	List(onlyActive bool) ([]models.Plan, error)
}

// GormPlanRepository is the GORM implementation.
type GormPlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a plan repository.
func NewPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// GetByID fetches a plan by primary key.
func (r *GormPlanRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// GetByCode fetches a plan by its unique code.
func (r *GormPlanRepository) GetByCode(code string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Where("code = ?", code).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// Create inserts a plan.
func (r *GormPlanRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

// Update saves a plan.
func (r *GormPlanRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

// Delete soft deletes a plan.
func (r *GormPlanRepository) Delete(id uint) error {
	return r.db.Delete(&models.Plan{}, id).Error
}

// List returns plans ordered for display.
func (r *GormPlanRepository) List(onlyActive bool) ([]models.Plan, error) {
	query := r.db.Model(&models.Plan{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var plans []models.Plan
	if err := query.Order("sort_order, id").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
