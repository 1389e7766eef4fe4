package repository

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository is the subscription data access interface.
type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository

	GetByID(id uint) (*models.Subscription, error)
	GetActiveByUser(userID uint) (*models.Subscription, error)
	Create(sub *models.Subscription) error
	Update(sub *models.Subscription) error
	List(filter SubscriptionListFilter) ([]models.Subscription, int64, error)
}

// SubscriptionListFilter narrows subscription listings.
type SubscriptionListFilter struct {
	UserID   uint
	PlanID   uint
	Status   string
	Page     int
	PageSize int
}

// GormSubscriptionRepository is the GORM implementation.
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a subscription repository.
func NewSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormSubscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	if tx == nil {
		return r
	}
	return &GormSubscriptionRepository{db: tx}
}

// GetByID fetches a subscription by primary key.
func (r *GormSubscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Preload("Plan").First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUser fetches the user's current active subscription, if any.
func (r *GormSubscriptionRepository) GetActiveByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, "active").
		Order("id desc").First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Create inserts a subscription.
func (r *GormSubscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// Update saves a subscription.
func (r *GormSubscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// List returns subscriptions matching the filter with total count.
func (r *GormSubscriptionRepository) List(filter SubscriptionListFilter) ([]models.Subscription, int64, error) {
	query := r.db.Model(&models.Subscription{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.PlanID > 0 {
		query = query.Where("plan_id = ?", filter.PlanID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var subs []models.Subscription
	if err := query.Preload("Plan").Order("id desc").Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}
