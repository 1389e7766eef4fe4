package admin

import (
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// GetRoles lists RBAC roles.
func (h *Handler) GetRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, roles)
}

// CreateRoleRequest carries a role name.
type CreateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateRole registers an empty role.
func (h *Handler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "role invalid", err)
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: "role_create",
		Role:   role,
	})
	response.Success(c, gin.H{"role": role})
}

// DeleteRole removes a role with all its policies and assignments.
func (h *Handler) DeleteRole(c *gin.Context) {
	role := c.Param("role")
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "role delete failed", err)
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: "role_delete",
		Role:   role,
	})
	response.Success(c, gin.H{"deleted": true})
}

// GetRolePolicies lists a role's permission rules.
func (h *Handler) GetRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "role policy fetch failed", err)
		return
	}
	response.Success(c, policies)
}

// RolePolicyRequest carries an object/action pair.
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GrantRolePolicy adds a permission rule to a role.
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	role := c.Param("role")
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "policy grant failed", err)
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: "policy_grant",
		Role:   role,
		Object: req.Object,
		Method: req.Action,
	})
	response.Success(c, gin.H{"granted": true})
}

// RevokeRolePolicy removes a permission rule from a role.
func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	role := c.Param("role")
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "policy revoke failed", err)
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action: "policy_revoke",
		Role:   role,
		Object: req.Object,
		Method: req.Action,
	})
	response.Success(c, gin.H{"revoked": true})
}

// GetAdminRoles lists the roles held by an admin.
func (h *Handler) GetAdminRoles(c *gin.Context) {
	adminID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "admin role fetch failed", err)
		return
	}
	response.Success(c, roles)
}

// SetAdminRolesRequest carries a full role assignment.
type SetAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetAdminRoles replaces an admin's role set.
func (h *Handler) SetAdminRoles(c *gin.Context) {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	target, err := h.AdminRepo.GetByID(targetID)
	if err != nil {
		respondError(c, response.CodeInternal, "admin fetch failed", err)
		return
	}
	if target == nil {
		respondError(c, response.CodeNotFound, "admin not found", nil)
		return
	}

	var req SetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(targetID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "admin role set failed", err)
		return
	}

	h.recordAuthzAudit(c, service.AuthzAuditRecordInput{
		Action:         "admin_roles_set",
		TargetAdminID:  &targetID,
		TargetUsername: target.Username,
	})
	response.Success(c, gin.H{"updated": true})
}

// GetAdminPolicies lists the effective permission rules of an admin.
func (h *Handler) GetAdminPolicies(c *gin.Context) {
	adminID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "admin policy fetch failed", err)
		return
	}
	response.Success(c, policies)
}

// GetAuthzAuditLogs lists the permission change audit trail.
func (h *Handler) GetAuthzAuditLogs(c *gin.Context) {
	page, pageSize := parsePagination(c)

	var operatorID uint
	if raw := c.Query("operator_id"); raw != "" {
		parsed, err := parseQueryUint(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "bad request", err)
			return
		}
		operatorID = parsed
	}

	logs, total, err := h.AuthzAuditService.List(repository.AuthzAuditLogListFilter{
		OperatorID: operatorID,
		Action:     c.Query("action"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "audit log fetch failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.NewPagination(page, pageSize, total))
}

// recordAuthzAudit stamps operator identity and request id onto an audit
// entry. Failures are logged, never surfaced.
func (h *Handler) recordAuthzAudit(c *gin.Context, input service.AuthzAuditRecordInput) {
	adminID, _ := c.Get("admin_id")
	if id, ok := adminID.(uint); ok {
		input.OperatorAdminID = id
	}
	input.OperatorUsername = contextAdminUsername(c)
	input.RequestID = contextRequestID(c)
	if err := h.AuthzAuditService.Record(input); err != nil {
		requestLog(c).Warnw("authz_audit_record_failed", "action", input.Action, "error", err)
	}
}
