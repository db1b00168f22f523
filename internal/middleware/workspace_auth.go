package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/database"
	apierrors "github.com/yutasato/campus-crm-api/internal/errors"
	"github.com/yutasato/campus-crm-api/internal/models"
)

// RequireWorkspaceAccess checks if the user is a member of the workspace
// named by the :id route parameter.
func RequireWorkspaceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		wsIDStr := c.Param("id")
		wsID, err := strconv.ParseUint(wsIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid workspace ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var ws models.Workspace
		if err := database.GetDB().First(&ws, wsID).Error; err != nil {
			// 404 for both missing and foreign workspaces, to avoid leaking existence
			apierrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		var member models.WorkspaceMember
		err = database.GetDB().
			Where("workspace_id = ? AND user_id = ?", wsID, userID).
			First(&member).Error
		if err != nil {
			apierrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyWorkspace, ws)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireWorkspaceAdmin checks that membership placed in context by a
// preceding access middleware carries the admin role.
func RequireWorkspaceAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetMember(c)
		if !ok {
			apierrors.Forbidden(c, "Workspace access required")
			c.Abort()
			return
		}

		if !member.IsAdmin() {
			apierrors.Forbidden(c, "Only workspace admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetMember retrieves the current workspace membership from context
func GetMember(c *gin.Context) (models.WorkspaceMember, bool) {
	memberInterface, exists := c.Get(constants.ContextKeyMember)
	if !exists {
		return models.WorkspaceMember{}, false
	}
	member, ok := memberInterface.(models.WorkspaceMember)
	return member, ok
}
