package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
)

// Referral tracks one prospect touched by an affiliate coupon through the
// referred -> registered -> converted lifecycle. Each timestamp is set at
// most once; status is derived from them, never stored.
type Referral struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	AffiliateID      uint           `gorm:"index;not null" json:"affiliate_id"`
	CouponCode       string         `gorm:"type:varchar(64);index;not null" json:"coupon_code"`
	Email            string         `gorm:"type:varchar(255);index;not null" json:"email"` // prospect email; duplicates allowed under different codes
	Name             string         `gorm:"type:varchar(120)" json:"name,omitempty"`
	Source           string         `gorm:"type:varchar(64)" json:"source,omitempty"` // acquisition source tag
	Medium           string         `gorm:"type:varchar(64)" json:"medium,omitempty"` // acquisition medium tag
	ReferredAt       time.Time      `gorm:"not null" json:"referred_at"`
	RegisteredAt     *time.Time     `json:"registered_at,omitempty"`
	ConvertedAt      *time.Time     `json:"converted_at,omitempty"`
	ConversionAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"conversion_amount"`
	CommissionEarned Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission_earned"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Affiliate *Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
}

// TableName sets the table name.
func (Referral) TableName() string {
	return "referrals"
}

// Status derives the lifecycle label from the timestamps.
func (r *Referral) Status() string {
	switch {
	case r == nil:
		return ""
	case r.ConvertedAt != nil:
		return constants.ReferralStatusConverted
	case r.RegisteredAt != nil:
		return constants.ReferralStatusRegistered
	default:
		return constants.ReferralStatusReferred
	}
}
