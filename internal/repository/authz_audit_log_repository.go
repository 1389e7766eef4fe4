package repository

import (
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"gorm.io/gorm"
)

// AuthzAuditLogRepository records role and policy changes.
type AuthzAuditLogRepository interface {
	Create(log *models.AuthzAuditLog) error
	List(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error)
}

// AuthzAuditLogListFilter narrows audit log listings.
type AuthzAuditLogListFilter struct {
	OperatorID uint
	Action     string
	Page       int
	PageSize   int
}

// GormAuthzAuditLogRepository is the GORM implementation.
type GormAuthzAuditLogRepository struct {
	db *gorm.DB
}

// NewAuthzAuditLogRepository creates an audit log repository.
func NewAuthzAuditLogRepository(db *gorm.DB) *GormAuthzAuditLogRepository {
	return &GormAuthzAuditLogRepository{db: db}
}

// Create appends an audit record.
func (r *GormAuthzAuditLogRepository) Create(log *models.AuthzAuditLog) error {
	return r.db.Create(log).Error
}

// List returns audit records matching the filter with total count.
func (r *GormAuthzAuditLogRepository) List(filter AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	query := r.db.Model(&models.AuthzAuditLog{})

	if filter.OperatorID > 0 {
		query = query.Where("operator_admin_id = ?", filter.OperatorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.AuthzAuditLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
