package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is one attempt to collect an order through the external gateway.
type Payment struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	PaymentNo     string         `gorm:"uniqueIndex;not null" json:"payment_no"`
	OrderID       uint           `gorm:"index;not null" json:"order_id"`
	Provider      string         `gorm:"type:varchar(32);not null" json:"provider"`
	Status        string         `gorm:"type:varchar(20);index;not null" json:"status"`
	Amount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Currency      string         `gorm:"type:varchar(10);not null" json:"currency"`
	ExternalTxnID string         `gorm:"type:varchar(128);index" json:"external_txn_id,omitempty"` // gateway transaction reference
	NotifyPayload string         `gorm:"type:text" json:"-"`                                       // raw webhook body kept for audit
	PaidAt        *time.Time     `gorm:"index" json:"paid_at,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Order Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName sets the table name.
func (Payment) TableName() string {
	return "payments"
}
