package repository

import (
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionEntryRepository is the commission ledger data access interface.
type CommissionEntryRepository interface {
	WithTx(tx *gorm.DB) CommissionEntryRepository

	Create(entry *models.CommissionEntry) error
	List(filter CommissionEntryListFilter) ([]models.CommissionEntry, int64, error)
	CountByKind(affiliateID uint, kind string) (int64, error)
	SumCommission(affiliateID uint) (decimal.Decimal, error)
}

// CommissionEntryListFilter narrows ledger listings.
type CommissionEntryListFilter struct {
	AffiliateID uint
	CouponID    uint
	Kind        string
	Page        int
	PageSize    int
}

// GormCommissionEntryRepository is the GORM implementation.
type GormCommissionEntryRepository struct {
	db *gorm.DB
}

// NewCommissionEntryRepository creates a commission ledger repository.
func NewCommissionEntryRepository(db *gorm.DB) *GormCommissionEntryRepository {
	return &GormCommissionEntryRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCommissionEntryRepository) WithTx(tx *gorm.DB) CommissionEntryRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionEntryRepository{db: tx}
}

// Create appends a ledger entry.
func (r *GormCommissionEntryRepository) Create(entry *models.CommissionEntry) error {
	return r.db.Create(entry).Error
}

// List returns ledger entries matching the filter with total count.
func (r *GormCommissionEntryRepository) List(filter CommissionEntryListFilter) ([]models.CommissionEntry, int64, error) {
	query := r.db.Model(&models.CommissionEntry{})

	if filter.AffiliateID > 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if filter.CouponID > 0 {
		query = query.Where("coupon_id = ?", filter.CouponID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.CommissionEntry
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// CountByKind counts ledger entries of one kind for an affiliate.
func (r *GormCommissionEntryRepository) CountByKind(affiliateID uint, kind string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.CommissionEntry{}).
		Where("affiliate_id = ? AND kind = ?", affiliateID, kind).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumCommission totals the recorded commission for an affiliate.
func (r *GormCommissionEntryRepository) SumCommission(affiliateID uint) (decimal.Decimal, error) {
	var raw *string
	if err := r.db.Model(&models.CommissionEntry{}).
		Where("affiliate_id = ?", affiliateID).
		Select("CAST(COALESCE(SUM(commission), 0) AS TEXT)").
		Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
