package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/queue"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
)

// TicketService runs the support desk: users open and reply to tickets,
// admins answer, assign, and close them. An admin reply queues an email
// notification to the ticket owner.
type TicketService struct {
	ticketRepo  repository.TicketRepository
	userRepo    repository.UserRepository
	queueClient *queue.Client
}

// NewTicketService creates a ticket service.
func NewTicketService(ticketRepo repository.TicketRepository, userRepo repository.UserRepository, queueClient *queue.Client) *TicketService {
	return &TicketService{ticketRepo: ticketRepo, userRepo: userRepo, queueClient: queueClient}
}

// OpenTicketInput carries ticket creation fields.
type OpenTicketInput struct {
	UserID   uint
	Subject  string
	Body     string
	Priority string
}

// Open creates a ticket with its first message.
func (s *TicketService) Open(input OpenTicketInput) (*models.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, ErrTicketInvalid
	}
	priority := input.Priority
	switch priority {
	case constants.TicketPriorityLow, constants.TicketPriorityNormal, constants.TicketPriorityHigh:
	default:
		priority = constants.TicketPriorityNormal
	}

	now := time.Now()
	ticket := &models.Ticket{
		TicketNo:    generateTicketNo(),
		UserID:      input.UserID,
		Subject:     subject,
		Status:      constants.TicketStatusOpen,
		Priority:    priority,
		LastReplyAt: &now,
		Messages: []models.TicketMessage{{
			AuthorType: constants.TicketAuthorUser,
			AuthorID:   input.UserID,
			Body:       body,
		}},
	}
	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UserReply appends a user message and reopens an answered ticket.
func (s *TicketService) UserReply(ticketID, userID uint, body string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.UserID != userID {
		return nil, ErrTicketForbidden
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, ErrTicketInvalid
	}

	if err := s.ticketRepo.AddMessage(&models.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: constants.TicketAuthorUser,
		AuthorID:   userID,
		Body:       text,
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	ticket.Status = constants.TicketStatusOpen
	ticket.LastReplyAt = &now
	if err := s.ticketRepo.Update(ticket); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByID(ticket.ID)
}

// AdminReply appends an admin message, marks the ticket answered, and queues
// an email notification to the owner.
func (s *TicketService) AdminReply(ticketID, adminID uint, body string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, ErrTicketInvalid
	}

	if err := s.ticketRepo.AddMessage(&models.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: constants.TicketAuthorAdmin,
		AuthorID:   adminID,
		Body:       text,
	}); err != nil {
		return nil, err
	}

	now := time.Now()
	ticket.Status = constants.TicketStatusAnswered
	ticket.LastReplyAt = &now
	if err := s.ticketRepo.Update(ticket); err != nil {
		return nil, err
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueTicketNotifyEmail(ticket.ID); err != nil {
			logger.Warnw("enqueue ticket notification failed",
				"ticket_no", ticket.TicketNo, "error", err)
		}
	}
	return s.ticketRepo.GetByID(ticket.ID)
}

// Assign hands a ticket to an admin.
func (s *TicketService) Assign(ticketID, adminID uint) error {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrTicketNotFound
	}
	ticket.AssignedAdminID = &adminID
	return s.ticketRepo.Update(ticket)
}

// Close finishes a ticket. The user may close their own; admins may close
// any (userID 0 skips the ownership check).
func (s *TicketService) Close(ticketID, userID uint) error {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrTicketNotFound
	}
	if userID != 0 && ticket.UserID != userID {
		return ErrTicketForbidden
	}
	if ticket.Status == constants.TicketStatusClosed {
		return nil
	}
	now := time.Now()
	ticket.Status = constants.TicketStatusClosed
	ticket.ClosedAt = &now
	return s.ticketRepo.Update(ticket)
}

// Get fetches a ticket with its thread. userID 0 skips the ownership check.
func (s *TicketService) Get(ticketID, userID uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if userID != 0 && ticket.UserID != userID {
		return nil, ErrTicketForbidden
	}
	return ticket, nil
}

// List returns tickets matching the filter.
func (s *TicketService) List(filter repository.TicketListFilter) ([]models.Ticket, int64, error) {
	return s.ticketRepo.List(filter)
}

// OwnerEmail resolves the ticket owner's address for notifications.
func (s *TicketService) OwnerEmail(ticketID uint) (string, string, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		return "", "", err
	}
	if ticket == nil {
		return "", "", ErrTicketNotFound
	}
	user, err := s.userRepo.GetByID(ticket.UserID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrUserNotFound
	}
	return user.Email, ticket.Subject, nil
}

// generateTicketNo builds a sortable unique ticket number.
func generateTicketNo() string {
	return fmt.Sprintf("TK%s%s", time.Now().Format("20060102150405"), randNumeric(4))
}
