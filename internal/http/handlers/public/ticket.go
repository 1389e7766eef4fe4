package public

import (
	"errors"
	"strconv"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// OpenTicketRequest carries a new support ticket.
type OpenTicketRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Priority string `json:"priority"`
}

// OpenTicket creates a support ticket with its first message.
func (h *Handler) OpenTicket(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	var req OpenTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	ticket, err := h.TicketService.Open(service.OpenTicketInput{
		UserID:   userID,
		Subject:  req.Subject,
		Body:     req.Body,
		Priority: req.Priority,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketInvalid):
			respondError(c, response.CodeBadRequest, "subject and body are required", nil)
		default:
			respondError(c, response.CodeInternal, "ticket open failed", err)
		}
		return
	}
	response.Success(c, ticket)
}

// GetTickets lists the customer's own tickets.
func (h *Handler) GetTickets(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	tickets, total, err := h.TicketService.List(repository.TicketListFilter{
		UserID:   userID,
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "ticket fetch failed", err)
		return
	}
	response.SuccessWithPage(c, tickets, response.NewPagination(page, pageSize, total))
}

// GetTicket fetches one of the customer's tickets with its thread.
func (h *Handler) GetTicket(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	ticket, err := h.TicketService.Get(ticketID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			respondError(c, response.CodeNotFound, "ticket not found", nil)
		default:
			respondError(c, response.CodeInternal, "ticket fetch failed", err)
		}
		return
	}
	response.Success(c, ticket)
}

// ReplyTicket appends a customer reply, reopening an answered ticket.
func (h *Handler) ReplyTicket(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	ticket, err := h.TicketService.UserReply(ticketID, userID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			respondError(c, response.CodeNotFound, "ticket not found", nil)
		case errors.Is(err, service.ErrTicketClosed):
			respondError(c, response.CodeBadRequest, "ticket closed", nil)
		case errors.Is(err, service.ErrTicketInvalid):
			respondError(c, response.CodeBadRequest, "reply body required", nil)
		default:
			respondError(c, response.CodeInternal, "ticket reply failed", err)
		}
		return
	}
	response.Success(c, ticket)
}

// CloseTicket lets the customer close their own ticket.
func (h *Handler) CloseTicket(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.TicketService.Close(ticketID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			respondError(c, response.CodeNotFound, "ticket not found", nil)
		default:
			respondError(c, response.CodeInternal, "ticket close failed", err)
		}
		return
	}
	response.Success(c, gin.H{"closed": true})
}

func parseTicketID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("ticket id invalid")
	}
	return uint(id), nil
}
