package models

import (
	"time"

	"gorm.io/gorm"
)

// Affiliate is a marketing partner account. Referral/conversion counters are
// mutated only through coupon usage recording; conversion rate and tier are
// derived and recomputed on every counter mutation.
type Affiliate struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"type:varchar(120);not null" json:"name"`                          // display name
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`             // contact email
	Status          string         `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"` // pending / active / suspended
	CommissionRate  Money          `gorm:"type:decimal(10,2);not null;default:0" json:"commission_rate"`    // percent applied when the coupon has no override
	Referrals       int64          `gorm:"not null;default:0" json:"referrals"`                             // cumulative referral count
	Conversions     int64          `gorm:"not null;default:0" json:"conversions"`                           // cumulative conversion count
	TotalEarnings   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`     // cumulative commission earned
	ConversionRate  float64        `gorm:"type:decimal(10,1);not null;default:0" json:"conversion_rate"`    // derived: conversions/referrals*100, 1 decimal
	PerformanceTier string         `gorm:"type:varchar(20);not null;default:'new'" json:"performance_tier"` // derived: new / poor / good / excellent
	CodeSeq         int            `gorm:"not null;default:0" json:"-"`                                     // sequence for generated coupon codes
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Affiliate) TableName() string {
	return "affiliates"
}
