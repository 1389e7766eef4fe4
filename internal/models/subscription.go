package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription binds a user to a plan for a billing period. Activated by the
// payment confirmation flow, never directly by order creation.
type Subscription struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	PlanID           uint           `gorm:"index;not null" json:"plan_id"`
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"` // active / canceled / expired
	BillingCycle     string         `gorm:"type:varchar(20);not null" json:"billing_cycle"`
	StartsAt         time.Time      `gorm:"not null" json:"starts_at"`
	CurrentPeriodEnd time.Time      `gorm:"index;not null" json:"current_period_end"`
	CanceledAt       *time.Time     `json:"canceled_at,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Plan Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName sets the table name.
func (Subscription) TableName() string {
	return "subscriptions"
}
