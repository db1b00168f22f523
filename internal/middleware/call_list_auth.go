package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/database"
	apierrors "github.com/yutasato/campus-crm-api/internal/errors"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"github.com/yutasato/campus-crm-api/internal/services"
)

// RequireCallListAccess loads the call list named by the :id route parameter
// and checks the caller may work it: workspace membership always, plus group
// access when the list is group-scoped. Admins have implicit group access.
func RequireCallListAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		listIDStr := c.Param("id")
		listID, err := strconv.ParseUint(listIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid call list ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var list models.CallList
		if err := database.GetDB().First(&list, listID).Error; err != nil {
			apierrors.NotFound(c, "Call list not found")
			c.Abort()
			return
		}

		var member models.WorkspaceMember
		err = database.GetDB().
			Where("workspace_id = ? AND user_id = ?", list.WorkspaceID, userID).
			First(&member).Error
		if err != nil {
			// 404 instead of 403 to avoid leaking call list existence
			apierrors.NotFound(c, "Call list not found")
			c.Abort()
			return
		}

		workspaceSvc := services.NewWorkspaceService(repository.NewWorkspaceRepository(database.GetDB()))
		allowed, err := workspaceSvc.HasGroupAccess(member, list.GroupID)
		if err != nil {
			apierrors.InternalError(c, "Failed to check group access")
			c.Abort()
			return
		}
		if !allowed {
			apierrors.Forbidden(c, "You do not have access to this group's call lists")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyCallList, list)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// GetCallList retrieves the call list placed in context by RequireCallListAccess
func GetCallList(c *gin.Context) (models.CallList, bool) {
	listInterface, exists := c.Get(constants.ContextKeyCallList)
	if !exists {
		return models.CallList{}, false
	}
	list, ok := listInterface.(models.CallList)
	return list, ok
}
