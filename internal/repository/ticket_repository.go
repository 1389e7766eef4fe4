package repository

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"

	"gorm.io/gorm"
)

// TicketRepository is the support ticket data access interface.
type TicketRepository interface {
	WithTx(tx *gorm.DB) TicketRepository

	GetByID(id uint) (*models.Ticket, error)
	GetByTicketNo(ticketNo string) (*models.Ticket, error)
	Create(ticket *models.Ticket) error
	Update(ticket *models.Ticket) error
	AddMessage(message *models.TicketMessage) error
	List(filter TicketListFilter) ([]models.Ticket, int64, error)
}

// TicketListFilter narrows ticket listings.
type TicketListFilter struct {
	UserID          uint
	AssignedAdminID uint
	Status          string
	Priority        string
	Page            int
	PageSize        int
}

// GormTicketRepository is the GORM implementation.
type GormTicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a ticket repository.
func NewTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormTicketRepository) WithTx(tx *gorm.DB) TicketRepository {
	if tx == nil {
		return r
	}
	return &GormTicketRepository{db: tx}
}

// GetByID fetches a ticket with its message thread.
func (r *GormTicketRepository) GetByID(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// GetByTicketNo fetches a ticket by its public number.
func (r *GormTicketRepository) GetByTicketNo(ticketNo string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("ticket_no = ?", ticketNo).First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// Create inserts a ticket together with any seeded messages.
func (r *GormTicketRepository) Create(ticket *models.Ticket) error {
	return r.db.Create(ticket).Error
}

// Update saves a ticket.
func (r *GormTicketRepository) Update(ticket *models.Ticket) error {
	return r.db.Save(ticket).Error
}

// AddMessage appends a message to a ticket thread.
func (r *GormTicketRepository) AddMessage(message *models.TicketMessage) error {
	return r.db.Create(message).Error
}

// List returns tickets matching the filter with total count.
func (r *GormTicketRepository) List(filter TicketListFilter) ([]models.Ticket, int64, error) {
	query := r.db.Model(&models.Ticket{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.AssignedAdminID > 0 {
		query = query.Where("assigned_admin_id = ?", filter.AssignedAdminID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var tickets []models.Ticket
	if err := query.Order("id desc").Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}
