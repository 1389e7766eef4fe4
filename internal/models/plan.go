package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan is a subscription tier of the journal product.
type Plan struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Code         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name         string         `gorm:"type:varchar(120);not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	PriceMonthly Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_monthly"`
	PriceYearly  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_yearly"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	SortOrder    int            `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Plan) TableName() string {
	return "plans"
}
