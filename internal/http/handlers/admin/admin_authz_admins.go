package admin

import (
	"errors"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdmins lists admin accounts.
func (h *Handler) GetAdmins(c *gin.Context) {
	page, pageSize := parsePagination(c)
	admins, total, err := h.AdminRepo.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "admin fetch failed", err)
		return
	}
	response.SuccessWithPage(c, admins, response.NewPagination(page, pageSize, total))
}

// CreateAdminRequest carries admin account creation fields.
type CreateAdminRequest struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required"`
	Roles    []string `json:"roles"`
}

// CreateAdmin registers an admin account and optionally assigns roles.
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	hashed, err := h.AuthService.HashPassword(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooWeak):
			respondError(c, response.CodeBadRequest, "password too weak", nil)
		default:
			respondError(c, response.CodeInternal, "admin create failed", err)
		}
		return
	}

	newAdmin := &models.Admin{
		Username:     req.Username,
		PasswordHash: hashed,
	}
	if err := h.AdminRepo.Create(newAdmin); err != nil {
		respondError(c, response.CodeConflict, "username taken", err)
		return
	}

	if len(req.Roles) > 0 {
		if err := h.AuthzService.SetAdminRoles(newAdmin.ID, req.Roles); err != nil {
			requestLog(c).Warnw("admin_create_role_assign_failed",
				"admin_id", newAdmin.ID, "error", err)
		}
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action:         "admin_create",
		TargetAdminID:  &newAdmin.ID,
		TargetUsername: newAdmin.Username,
	})
	response.Success(c, gin.H{
		"id":       newAdmin.ID,
		"username": newAdmin.Username,
	})
}
