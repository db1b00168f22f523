package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yutasato/campus-crm-api/internal/dto"
	apierrors "github.com/yutasato/campus-crm-api/internal/errors"
	"github.com/yutasato/campus-crm-api/internal/middleware"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/services"
	"github.com/yutasato/campus-crm-api/internal/utils"
)

// CallListHandler coordinates call list HTTP handlers.
type CallListHandler struct {
	callListService  *services.CallListService
	workspaceService *services.WorkspaceService
}

// NewCallListHandler creates a new CallListHandler.
func NewCallListHandler(callListService *services.CallListService, workspaceService *services.WorkspaceService) *CallListHandler {
	return &CallListHandler{
		callListService:  callListService,
		workspaceService: workspaceService,
	}
}

// QuestionRequest is the wire shape of one schema question.
type QuestionRequest struct {
	Prompt   string              `json:"prompt" binding:"required"`
	Type     models.QuestionType `json:"type" binding:"required"`
	Required bool                `json:"required"`
	Options  []string            `json:"options"`
}

// StudentFilterRequest is the wire shape of the saved-filter criteria.
type StudentFilterRequest struct {
	GroupID   *uint64               `json:"group_id"`
	Status    *models.StudentStatus `json:"status"`
	NameQuery string                `json:"name_query"`
}

func toQuestionInputs(reqs []QuestionRequest) []services.QuestionInput {
	inputs := make([]services.QuestionInput, len(reqs))
	for i, q := range reqs {
		inputs[i] = services.QuestionInput{
			Prompt:   q.Prompt,
			Type:     q.Type,
			Required: q.Required,
			Options:  q.Options,
		}
	}
	return inputs
}

// CreateCallList creates a call list from explicit student ids or a filter.
func (h *CallListHandler) CreateCallList(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateCallListRequest struct {
		WorkspaceID uint64                `json:"workspace_id" binding:"required"`
		GroupID     *uint64               `json:"group_id"`
		Name        string                `json:"name" binding:"required"`
		Source      models.CallListSource `json:"source" binding:"required"`
		Metadata    json.RawMessage       `json:"metadata"`
		Questions   []QuestionRequest     `json:"questions"`
		StudentIDs  []uint64              `json:"student_ids"`
		Filter      *StudentFilterRequest `json:"filter"`
	}

	var req CreateCallListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.workspaceService.GetMember(req.WorkspaceID, userID)
	if err != nil {
		apierrors.NotFound(c, "Workspace not found")
		return
	}
	if !member.IsAdmin() {
		apierrors.Forbidden(c, "Only workspace admins can create call lists")
		return
	}

	input := services.CreateCallListInput{
		WorkspaceID: req.WorkspaceID,
		GroupID:     req.GroupID,
		Name:        req.Name,
		Source:      req.Source,
		Metadata:    req.Metadata,
		Questions:   toQuestionInputs(req.Questions),
		StudentIDs:  req.StudentIDs,
	}
	if req.Filter != nil {
		input.Filter = &services.StudentFilterInput{
			GroupID:   req.Filter.GroupID,
			Status:    req.Filter.Status,
			NameQuery: req.Filter.NameQuery,
		}
	}

	list, result, err := h.callListService.Create(input)
	if err != nil {
		respondCallListError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"call_list": dto.ToCallListDTO(*list),
		"enqueue":   result,
	})
}

// ListCallLists returns a page of the workspace's call lists.
func (h *CallListHandler) ListCallLists(c *gin.Context) {
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

	lists, total, err := h.callListService.ListForWorkspace(workspaceID, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch call lists")
		return
	}

	listDTOs := make([]dto.CallListDTO, len(lists))
	for i, l := range lists {
		listDTOs[i] = dto.ToCallListDTO(l)
	}

	c.JSON(http.StatusOK, gin.H{
		"call_lists": listDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetCallList returns the call list in context with schema and progress.
func (h *CallListHandler) GetCallList(c *gin.Context) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return
	}

	detail, counts, err := h.callListService.Get(list.ID)
	if err != nil {
		respondCallListError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCallListDetailDTO(*detail, counts))
}

// AddItems bulk-adds students to the call list in context. Idempotent per
// student id: duplicates are counted, not rejected.
func (h *CallListHandler) AddItems(c *gin.Context) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return
	}

	type AddItemsRequest struct {
		StudentIDs []uint64 `json:"student_ids" binding:"required"`
	}

	var req AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.callListService.AddItems(list.WorkspaceID, list.ID, req.StudentIDs)
	if err != nil {
		respondCallListError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateQuestions replaces the question schema while it is still mutable.
func (h *CallListHandler) UpdateQuestions(c *gin.Context) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return
	}

	member, ok := middleware.GetMember(c)
	if !ok || !member.IsAdmin() {
		apierrors.Forbidden(c, "Only workspace admins can edit the question schema")
		return
	}

	type UpdateQuestionsRequest struct {
		Questions []QuestionRequest `json:"questions" binding:"required"`
	}

	var req UpdateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	questions, err := h.callListService.UpdateQuestions(list.ID, toQuestionInputs(req.Questions))
	if err != nil {
		respondCallListError(c, err)
		return
	}

	questionDTOs := make([]dto.QuestionDTO, len(questions))
	for i, q := range questions {
		questionDTOs[i] = dto.ToQuestionDTO(q)
	}

	c.JSON(http.StatusOK, gin.H{"questions": questionDTOs})
}

// DeleteCallList removes the call list in context (admins only).
func (h *CallListHandler) DeleteCallList(c *gin.Context) {
	list, ok := middleware.GetCallList(c)
	if !ok {
		apierrors.InternalError(c, "Call list not found in context")
		return
	}

	member, ok := middleware.GetMember(c)
	if !ok || !member.IsAdmin() {
		apierrors.Forbidden(c, "Only workspace admins can delete call lists")
		return
	}

	if err := h.callListService.Delete(list.ID); err != nil {
		respondCallListError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Call list deleted"})
}

func respondCallListError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCallListNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCallListNameRequired),
		errors.Is(err, services.ErrInvalidCallListSource),
		errors.Is(err, services.ErrStudentIDsRequired),
		errors.Is(err, services.ErrFilterRequired),
		errors.Is(err, services.ErrQuestionPromptRequired),
		errors.Is(err, services.ErrInvalidQuestionType),
		errors.Is(err, services.ErrChoiceOptionsRequired),
		errors.Is(err, services.ErrUnknownStudents):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrSchemaImmutable):
		apierrors.ImmutableSchema(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
