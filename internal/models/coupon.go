package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon is a discount code, optionally tied to an affiliate as a referral
// code. Usage counters are mutated only by the coupon ledger operations;
// codes are deactivated rather than hard-deleted by business flow.
type Coupon struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	Code              string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`              // unique coupon code
	Description       string         `gorm:"type:varchar(255)" json:"description"`                           // admin-facing note
	DiscountPercent   Money          `gorm:"type:decimal(10,2);not null;default:0" json:"discount_percent"`  // 0-100
	CommissionPercent *Money         `gorm:"type:decimal(10,2)" json:"commission_percent,omitempty"`         // overrides the affiliate rate when set
	MinAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"`        // minimum order amount, 0 = none
	MaxUses           int            `gorm:"not null;default:0" json:"max_uses"`                             // usage cap, 0 = unlimited
	UsedCount         int            `gorm:"not null;default:0" json:"used_count"`                           // recorded referrals
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`
	AffiliateID       *uint          `gorm:"index" json:"affiliate_id,omitempty"` // nil for plain discount codes
	ExpiresAt         *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Affiliate *Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
}

// TableName sets the table name.
func (Coupon) TableName() string {
	return "coupons"
}

// IsAffiliateCode reports whether the coupon is a referral code. A coupon
// without an affiliate reference is never treated as one.
func (c *Coupon) IsAffiliateCode() bool {
	return c != nil && c.AffiliateID != nil && *c.AffiliateID != 0
}
