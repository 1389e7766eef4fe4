package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// GetTickets lists support tickets.
func (h *Handler) GetTickets(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		userID = uint(parsed)
	}
	var assignedAdminID uint
	if raw := strings.TrimSpace(c.Query("assigned_admin_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		assignedAdminID = uint(parsed)
	}

	tickets, total, err := h.TicketService.List(repository.TicketListFilter{
		UserID:          userID,
		AssignedAdminID: assignedAdminID,
		Status:          c.Query("status"),
		Priority:        c.Query("priority"),
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "ticket fetch failed", err)
		return
	}
	response.SuccessWithPage(c, tickets, response.NewPagination(page, pageSize, total))
}

// GetTicket fetches one ticket with its full thread.
func (h *Handler) GetTicket(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	ticket, err := h.TicketService.Get(ticketID, 0)
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

// TicketReplyRequest carries a reply body.
type TicketReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// ReplyTicket appends an admin reply and notifies the ticket owner.
func (h *Handler) ReplyTicket(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	adminID, ok := contextAdminID(c)
	if !ok {
		return
	}
	var req TicketReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	ticket, err := h.TicketService.AdminReply(ticketID, adminID, req.Body)
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

// AssignTicketRequest carries an assignment target.
type AssignTicketRequest struct {
	AdminID uint `json:"admin_id" binding:"required"`
}

// AssignTicket routes a ticket to an admin.
func (h *Handler) AssignTicket(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.TicketService.Assign(ticketID, req.AdminID); err != nil {
		switch {
		case errors.Is(err, service.ErrTicketNotFound):
			respondError(c, response.CodeNotFound, "ticket not found", nil)
		default:
			respondError(c, response.CodeInternal, "ticket assign failed", err)
		}
		return
	}
	response.Success(c, gin.H{"assigned": true})
}

// CloseTicket closes a ticket.
func (h *Handler) CloseTicket(c *gin.Context) {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.TicketService.Close(ticketID, 0); err != nil {
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
