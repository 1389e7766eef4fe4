package repository

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"gorm.io/gorm"
)

// ReferralRepository is the referral record data access interface.
type ReferralRepository interface {
	WithTx(tx *gorm.DB) ReferralRepository

	GetByID(id uint) (*models.Referral, error)
	GetByCodeAndEmail(couponCode, email string) (*models.Referral, error)
	Create(referral *models.Referral) error
	Update(referral *models.Referral) error
	List(filter ReferralListFilter) ([]models.Referral, int64, error)
}

// ReferralListFilter narrows referral listings.
type ReferralListFilter struct {
	AffiliateID uint
	CouponCode  string
	Email       string
	Status      string // derived filter: referred / registered / converted
	Page        int
	PageSize    int
}

// GormReferralRepository is the GORM implementation.
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a referral repository.
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// GetByID fetches a referral by primary key.
func (r *GormReferralRepository) GetByID(id uint) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.First(&referral, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// GetByCodeAndEmail fetches the latest referral touch for a coupon+email
// pair. The pair is not unique; the newest row wins.
func (r *GormReferralRepository) GetByCodeAndEmail(couponCode, email string) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.Where("coupon_code = ? AND email = ?", couponCode, email).
		Order("id desc").First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// Create inserts a referral.
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// Update saves a referral.
func (r *GormReferralRepository) Update(referral *models.Referral) error {
	return r.db.Save(referral).Error
}

// List returns referrals matching the filter with total count.
func (r *GormReferralRepository) List(filter ReferralListFilter) ([]models.Referral, int64, error) {
	query := r.db.Model(&models.Referral{})

	if filter.AffiliateID > 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if filter.CouponCode != "" {
		query = query.Where("coupon_code = ?", filter.CouponCode)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	switch filter.Status {
	case "referred":
		query = query.Where("registered_at IS NULL AND converted_at IS NULL")
	case "registered":
		query = query.Where("registered_at IS NOT NULL AND converted_at IS NULL")
	case "converted":
		query = query.Where("converted_at IS NOT NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var referrals []models.Referral
	if err := query.Order("id desc").Find(&referrals).Error; err != nil {
		return nil, 0, err
	}
	return referrals, total, nil
}
