package repository

import (
	"errors"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AffiliateRepository is the affiliate data access interface.
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetByID(id uint) (*models.Affiliate, error)
	GetByIDForUpdate(id uint) (*models.Affiliate, error)
	GetByEmail(email string) (*models.Affiliate, error)
	Create(affiliate *models.Affiliate) error
	Update(affiliate *models.Affiliate) error
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	List(filter AffiliateListFilter) ([]models.Affiliate, int64, error)
	ListIDs() ([]uint, error)
	NextCodeSeq(id uint) (int, error)
}

// AffiliateListFilter narrows affiliate listings.
type AffiliateListFilter struct {
	Keyword  string
	Status   string
	Tier     string
	Page     int
	PageSize int
}

// GormAffiliateRepository is the GORM implementation.
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository creates an affiliate repository.
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID fetches an affiliate by primary key.
func (r *GormAffiliateRepository) GetByID(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByIDForUpdate fetches an affiliate with a row lock. Must run inside a
// transaction.
func (r *GormAffiliateRepository) GetByIDForUpdate(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByEmail fetches an affiliate by contact email.
func (r *GormAffiliateRepository) GetByEmail(email string) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.Where("email = ?", email).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// Create inserts an affiliate.
func (r *GormAffiliateRepository) Create(affiliate *models.Affiliate) error {
	return r.db.Create(affiliate).Error
}

// Update saves an affiliate.
func (r *GormAffiliateRepository) Update(affiliate *models.Affiliate) error {
	return r.db.Save(affiliate).Error
}

// UpdateStatus updates the lifecycle status only.
func (r *GormAffiliateRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": updatedAt,
		}).Error
}

// List returns affiliates matching the filter with total count.
func (r *GormAffiliateRepository) List(filter AffiliateListFilter) ([]models.Affiliate, int64, error) {
	query := r.db.Model(&models.Affiliate{})

	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tier != "" {
		query = query.Where("performance_tier = ?", filter.Tier)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var affiliates []models.Affiliate
	if err := query.Order("id desc").Find(&affiliates).Error; err != nil {
		return nil, 0, err
	}
	return affiliates, total, nil
}

// ListIDs returns all affiliate IDs, used by the stats refresh task.
func (r *GormAffiliateRepository) ListIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Affiliate{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// NextCodeSeq bumps and returns the affiliate's coupon code sequence.
func (r *GormAffiliateRepository) NextCodeSeq(id uint) (int, error) {
	if err := r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		UpdateColumn("code_seq", gorm.Expr("code_seq + 1")).Error; err != nil {
		return 0, err
	}
	var seq int
	if err := r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Pluck("code_seq", &seq).Error; err != nil {
		return 0, err
	}
	return seq, nil
}
