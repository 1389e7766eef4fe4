package models

import (
	"time"

	"gorm.io/gorm"
)

// Ticket is a support conversation opened by a user.
type Ticket struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	TicketNo        string         `gorm:"uniqueIndex;not null" json:"ticket_no"`
	UserID          uint           `gorm:"index;not null" json:"user_id"`
	Subject         string         `gorm:"type:varchar(255);not null" json:"subject"`
	Status          string         `gorm:"type:varchar(20);index;not null" json:"status"`   // open / answered / closed
	Priority        string         `gorm:"type:varchar(20);index;not null" json:"priority"` // low / normal / high
	AssignedAdminID *uint          `gorm:"index" json:"assigned_admin_id,omitempty"`
	LastReplyAt     *time.Time     `gorm:"index" json:"last_reply_at,omitempty"`
	ClosedAt        *time.Time     `json:"closed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User     User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Messages []TicketMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
}

// TableName sets the table name.
func (Ticket) TableName() string {
	return "tickets"
}

// TicketMessage is one entry in a ticket thread.
type TicketMessage struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	TicketID   uint      `gorm:"index;not null" json:"ticket_id"`
	AuthorType string    `gorm:"type:varchar(10);not null" json:"author_type"` // user / admin
	AuthorID   uint      `gorm:"not null" json:"author_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
