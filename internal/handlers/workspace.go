package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/dto"
	apierrors "github.com/yutasato/campus-crm-api/internal/errors"
	"github.com/yutasato/campus-crm-api/internal/middleware"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/services"
)

// WorkspaceHandler coordinates workspace membership HTTP handlers.
type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(workspaceService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
	}
}

// CreateWorkspace creates a workspace with the caller as admin.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateWorkspaceRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.workspaceService.CreateWorkspace(services.CreateWorkspaceInput{
		Name:    req.Name,
		AdminID: userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidWorkspaceName) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*ws, true))
}

// JoinWorkspace adds the caller to a workspace via invite code.
func (h *WorkspaceHandler) JoinWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.workspaceService.JoinWorkspace(req.InviteCode, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInviteCode):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrAlreadyMember):
			apierrors.Conflict(c, err.Error())
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws, false))
}

// ListWorkspaces returns workspaces the caller belongs to.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.workspaceService.ListWorkspacesForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	workspaces := make([]dto.WorkspaceWithRoleDTO, len(memberships))
	for i, m := range memberships {
		workspaces[i] = dto.ToWorkspaceWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// ListMembers returns all members of the workspace in context.
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	wsInterface, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	ws, ok := wsInterface.(models.Workspace)
	if !ok {
		apierrors.InternalError(c, "Invalid workspace data")
		return
	}

	members, err := h.workspaceService.ListMembers(ws.ID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	memberDTOs := make([]dto.WorkspaceMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToWorkspaceMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"members": memberDTOs})
}

// GrantGroupAccess lets an admin open a group's call lists to a caller.
func (h *WorkspaceHandler) GrantGroupAccess(c *gin.Context) {
	wsInterface, exists := c.Get(constants.ContextKeyWorkspace)
	if !exists {
		apierrors.InternalError(c, "Workspace not found in context")
		return
	}
	ws, ok := wsInterface.(models.Workspace)
	if !ok {
		apierrors.InternalError(c, "Invalid workspace data")
		return
	}

	memberID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type GrantRequest struct {
		GroupID uint64 `json:"group_id" binding:"required"`
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.workspaceService.GrantGroupAccess(ws.ID, memberID, req.GroupID); err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group access granted"})
}
