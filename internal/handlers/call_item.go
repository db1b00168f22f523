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
	"github.com/yutasato/campus-crm-api/internal/repository"
	"github.com/yutasato/campus-crm-api/internal/services"
	"github.com/yutasato/campus-crm-api/internal/utils"
	"github.com/yutasato/campus-crm-api/internal/validation"
)

// CallItemHandler coordinates call list item HTTP handlers: listing the
// queue, claiming, releasing and completing items.
type CallItemHandler struct {
	itemService *services.CallItemService
}

// NewCallItemHandler creates a new CallItemHandler.
func NewCallItemHandler(itemService *services.CallItemService) *CallItemHandler {
	return &CallItemHandler{
		itemService: itemService,
	}
}

// ListItems returns a page of the queue, optionally filtered by state.
func (h *CallItemHandler) ListItems(c *gin.Context) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return
	}

	params := utils.GetPaginationParams(c)

	filter := repository.ItemFilter{
		CallListID: list.ID,
		Page:       params.Page,
		PageSize:   params.Limit,
	}
	if stateStr := c.Query("state"); stateStr != "" {
		state := models.ItemState(stateStr)
		filter.State = &state
	}

	items, total, err := h.itemService.ListItems(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch items")
		return
	}

	itemDTOs := make([]dto.CallListItemDTO, len(items))
	for i, item := range items {
		itemDTOs[i] = dto.ToCallListItemDTO(item)
	}

	c.JSON(http.StatusOK, gin.H{
		"items": itemDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ClaimNext claims the oldest queued item on the list for the caller.
func (h *CallItemHandler) ClaimNext(c *gin.Context) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	item, err := h.itemService.ClaimNext(list.ID, userID)
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCallListItemDTO(*item))
}

// ClaimItem claims a specific queued item for the caller. Returns 409 when
// the claim race was lost or the item is past QUEUED.
func (h *CallItemHandler) ClaimItem(c *gin.Context) {
	list, itemID, userID, ok := h.itemRequest(c)
	if !ok {
		return
	}

	item, err := h.itemService.Claim(list.ID, itemID, userID)
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCallListItemDTO(*item))
}

// ReleaseItem abandons a claim, returning the item to the queue without a log.
func (h *CallItemHandler) ReleaseItem(c *gin.Context) {
	list, itemID, userID, ok := h.itemRequest(c)
	if !ok {
		return
	}

	member, _ := middleware.GetMember(c)

	item, err := h.itemService.Release(list.ID, itemID, userID, member.IsAdmin())
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCallListItemDTO(*item))
}

// CompleteItem submits the call outcome and answers for a claimed item.
// Validation failures return 400 with every violated rule; the item stays
// CALLING so the caller can resubmit.
func (h *CallItemHandler) CompleteItem(c *gin.Context) {
	list, itemID, userID, ok := h.itemRequest(c)
	if !ok {
		return
	}

	type CompleteRequest struct {
		Status          models.CallLogStatus         `json:"status" binding:"required"`
		Skipped         bool                         `json:"skipped"`
		CalledAt        *time.Time                   `json:"called_at"`
		DurationSeconds *int                         `json:"duration_seconds"`
		Notes           string                       `json:"notes"`
		CallerNote      string                       `json:"caller_note"`
		SummaryNote     string                       `json:"summary_note"`
		Answers         []validation.SubmittedAnswer `json:"answers"`
		FollowupNeeded  bool                         `json:"followup_needed"`
		FollowupDueAt   *time.Time                   `json:"followup_due_at"`
		FollowupNote    string                       `json:"followup_note"`
	}

	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	item, log, err := h.itemService.Complete(list.ID, itemID, userID, services.CallOutcome{
		Status:          req.Status,
		Skipped:         req.Skipped,
		CalledAt:        req.CalledAt,
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
		CallerNote:      req.CallerNote,
		SummaryNote:     req.SummaryNote,
		Answers:         req.Answers,
		FollowupNeeded:  req.FollowupNeeded,
		FollowupDueAt:   req.FollowupDueAt,
		FollowupNote:    req.FollowupNote,
	})
	if err != nil {
		respondItemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":     dto.ToCallListItemDTO(*item),
		"call_log": dto.ToCallLogDTO(*log),
	})
}

// itemRequest extracts the call list, item id and caller shared by the
// per-item handlers.
func (h *CallItemHandler) itemRequest(c *gin.Context) (models.CallList, uint64, uint64, bool) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return models.CallList{}, 0, 0, false
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid item ID")
		return models.CallList{}, 0, 0, false
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return models.CallList{}, 0, 0, false
	}

	return list, itemID, userID, true
}

func respondItemError(c *gin.Context, err error) {
	var validationErr *services.AnswerValidationError
	if errors.As(err, &validationErr) {
		apierrors.ValidationFailed(c, "Answers failed validation", validationErr.Result.Errors)
		return
	}

	switch {
	case errors.Is(err, services.ErrItemNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNoQueuedItems):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrItemNotClaimable),
		errors.Is(err, services.ErrItemNotCalling),
		errors.Is(err, services.ErrNotItemAssignee):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCallStatus),
		errors.Is(err, services.ErrDueBeforeCallDate):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
