package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a subscription purchase. Coupon/affiliate attribution is
// snapshotted at creation so the payment confirmation flow can resolve the
// same coupon even if it was edited or deactivated in between.
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`
	UserID         uint           `gorm:"index;not null" json:"user_id"`
	PlanID         uint           `gorm:"index;not null" json:"plan_id"`
	BillingCycle   string         `gorm:"type:varchar(20);not null" json:"billing_cycle"`
	Status         string         `gorm:"index;not null" json:"status"`
	Currency       string         `gorm:"type:varchar(10);not null" json:"currency"`
	OriginalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"`
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode     string         `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	AffiliateID    *uint          `gorm:"index" json:"affiliate_id,omitempty"`
	ClientIP       string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`
	CanceledAt     *time.Time     `gorm:"index" json:"canceled_at"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Plan Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
