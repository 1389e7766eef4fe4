package admin

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// GetUsers lists customer accounts.
func (h *Handler) GetUsers(c *gin.Context) {
	page, pageSize := parsePagination(c)

	users, total, err := h.UserAuthService.ListUsers(repository.UserListFilter{
		Keyword:  c.Query("keyword"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// SetUserStatusRequest carries a customer status transition.
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserStatus enables or disables a customer. Disabling revokes issued
// tokens.
func (h *Handler) SetUserStatus(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.UserAuthService.SetStatus(userID, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		case errors.Is(err, service.ErrUserStatusInvalid):
			respondError(c, response.CodeBadRequest, "user status invalid", nil)
		default:
			respondError(c, response.CodeInternal, "user status change failed", err)
		}
		return
	}

	requestLog(c).Infow("user_status_changed", "user_id", userID, "status", req.Status)
	response.Success(c, gin.H{"updated": true})
}
