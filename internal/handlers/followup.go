package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yutasato/campus-crm-api/internal/dto"
	apierrors "github.com/yutasato/campus-crm-api/internal/errors"
	"github.com/yutasato/campus-crm-api/internal/middleware"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/services"
	"github.com/yutasato/campus-crm-api/internal/utils"
)

// FollowupHandler coordinates followup HTTP handlers.
type FollowupHandler struct {
	followupService  *services.FollowupService
	workspaceService *services.WorkspaceService
}

// NewFollowupHandler creates a new FollowupHandler.
func NewFollowupHandler(followupService *services.FollowupService, workspaceService *services.WorkspaceService) *FollowupHandler {
	return &FollowupHandler{
		followupService:  followupService,
		workspaceService: workspaceService,
	}
}

// ListFollowups returns a page of followups with is_overdue computed against
// the query-time clock.
func (h *FollowupHandler) ListFollowups(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	workspaceID, ok := utils.ParseUintQuery(c, "workspace_id")
	if !ok {
		apierrors.BadRequest(c, "workspace_id is required")
		return
	}

	if _, err := h.workspaceService.GetMember(workspaceID, userID); err != nil {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListFollowupsInput{
		WorkspaceID: workspaceID,
		Page:        params.Page,
		PageSize:    params.Limit,
	}

	if callListID, ok := utils.ParseUintQuery(c, "call_list_id"); ok {
		input.CallListID = &callListID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.FollowupStatus(statusStr)
		input.Status = &status
	}
	if assigneeID, ok := utils.ParseUintQuery(c, "assigned_to"); ok {
		input.AssigneeID = &assigneeID
	}
	if from, ok := parseDateQuery(c, "start_date"); ok {
		input.DueFrom = &from
	}
	if to, ok := parseDateQuery(c, "end_date"); ok {
		input.DueTo = &to
	}

	followups, total, err := h.followupService.List(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch followups")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"followups": dto.ToFollowupDTOs(followups, time.Now()),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// UpdateFollowup transitions a PENDING followup to DONE or SKIPPED.
func (h *FollowupHandler) UpdateFollowup(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	followupID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid followup ID")
		return
	}

	type UpdateFollowupRequest struct {
		WorkspaceID uint64                `json:"workspace_id" binding:"required"`
		Status      models.FollowupStatus `json:"status" binding:"required"`
	}

	var req UpdateFollowupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if _, err := h.workspaceService.GetMember(req.WorkspaceID, userID); err != nil {
		apierrors.NotFound(c, "Workspace not found")
		return
	}

	followup, err := h.followupService.Transition(req.WorkspaceID, followupID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFollowupNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrFollowupAlreadyClosed):
			apierrors.Conflict(c, err.Error())
		case errors.Is(err, services.ErrInvalidFollowupStatus):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToFollowupDTO(*followup, time.Now()))
}

func parseDateQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
