package models

import "time"

// CommissionEntry is an append-only ledger row written alongside every
// counter mutation on Coupon/Affiliate. The aggregate counters stay the
// source of truth for reads; the entries exist for audit and reconciliation.
type CommissionEntry struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AffiliateID uint      `gorm:"index;not null" json:"affiliate_id"`
	CouponID    uint      `gorm:"index;not null" json:"coupon_id"`
	OrderID     *uint     `gorm:"index" json:"order_id,omitempty"`
	Kind        string    `gorm:"type:varchar(20);not null;index" json:"kind"` // referral / conversion / reversal
	Amount      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Commission  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"commission"`
	CreatedAt   time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Affiliate *Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	Coupon    *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
}

// TableName sets the table name.
func (CommissionEntry) TableName() string {
	return "commission_entries"
}
