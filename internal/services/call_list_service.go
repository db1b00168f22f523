package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrCallListNotFound       = errors.New("call list not found")
	ErrCallListNameRequired   = errors.New("call list name is required")
	ErrInvalidCallListSource  = errors.New("source must be MANUAL or FILTER")
	ErrStudentIDsRequired     = errors.New("a MANUAL call list needs at least one student id")
	ErrFilterRequired         = errors.New("a FILTER call list needs filter criteria")
	ErrQuestionPromptRequired = errors.New("every question needs a prompt")
	ErrInvalidQuestionType    = errors.New("unknown question type")
	ErrChoiceOptionsRequired  = errors.New("multiple-choice questions need at least one option")
	ErrUnknownStudents        = errors.New("one or more students do not exist in this workspace")
	ErrSchemaImmutable        = errors.New("question schema cannot change once answers reference it")
)

// CallListService orchestrates call list creation, bulk enqueueing and
// schema lifecycle.
type CallListService struct {
	callListRepo repository.CallListRepository
	studentRepo  repository.StudentRepository
}

// NewCallListService creates a new CallListService
func NewCallListService(callListRepo repository.CallListRepository, studentRepo repository.StudentRepository) *CallListService {
	return &CallListService{
		callListRepo: callListRepo,
		studentRepo:  studentRepo,
	}
}

// QuestionInput describes one question of a new schema.
type QuestionInput struct {
	Prompt   string
	Type     models.QuestionType
	Required bool
	Options  []string
}

// StudentFilterInput is the saved-filter criteria a FILTER list resolves.
type StudentFilterInput struct {
	GroupID   *uint64
	Status    *models.StudentStatus
	NameQuery string
}

// CreateCallListInput represents input for creating a call list
type CreateCallListInput struct {
	WorkspaceID uint64
	GroupID     *uint64
	Name        string
	Source      models.CallListSource
	Metadata    json.RawMessage
	Questions   []QuestionInput
	StudentIDs  []uint64
	Filter      *StudentFilterInput
}

// BulkAddResult reports what a bulk enqueue actually did.
type BulkAddResult struct {
	Requested        int   `json:"requested"`
	Added            int64 `json:"added"`
	SkippedDuplicate int64 `json:"skipped_duplicate"`
}

// Create builds a call list with its question schema and enqueues its items.
// A FILTER source resolves the student directory page by page first, then
// follows the same path as an explicit id set.
func (s *CallListService) Create(input CreateCallListInput) (*models.CallList, BulkAddResult, error) {
	var zero BulkAddResult

	if strings.TrimSpace(input.Name) == "" {
		return nil, zero, ErrCallListNameRequired
	}

	questions, err := buildQuestions(input.Questions)
	if err != nil {
		return nil, zero, err
	}

	var studentIDs []uint64
	switch input.Source {
	case models.SourceManual:
		if len(input.StudentIDs) == 0 {
			return nil, zero, ErrStudentIDsRequired
		}
		studentIDs = input.StudentIDs
	case models.SourceFilter:
		if input.Filter == nil {
			return nil, zero, ErrFilterRequired
		}
		studentIDs, err = s.resolveFilter(input.WorkspaceID, *input.Filter)
		if err != nil {
			return nil, zero, err
		}
	default:
		return nil, zero, ErrInvalidCallListSource
	}

	list := &models.CallList{
		WorkspaceID: input.WorkspaceID,
		GroupID:     input.GroupID,
		Name:        input.Name,
		Source:      input.Source,
		Metadata:    datatypes.JSON(input.Metadata),
	}

	if err := s.callListRepo.CreateWithQuestions(list, questions); err != nil {
		return nil, zero, fmt.Errorf("failed to create call list: %w", err)
	}

	result, err := s.AddItems(list.WorkspaceID, list.ID, studentIDs)
	if err != nil {
		return nil, zero, err
	}

	created, err := s.callListRepo.FindByID(list.ID, "Questions")
	if err != nil {
		return nil, zero, fmt.Errorf("failed to reload call list: %w", err)
	}

	return created, result, nil
}

// AddItems bulk-enqueues students onto an existing list. Adding a student who
// is already on the list is a no-op, not an error, so the operation can be
// retried from any point after a partial failure.
func (s *CallListService) AddItems(workspaceID, callListID uint64, studentIDs []uint64) (BulkAddResult, error) {
	result := BulkAddResult{Requested: len(studentIDs)}

	unique := uniqueUint64(studentIDs)
	if len(unique) == 0 {
		return result, nil
	}

	count, err := s.studentRepo.CountByIDs(unique, workspaceID)
	if err != nil {
		return result, fmt.Errorf("failed to verify students: %w", err)
	}
	if int(count) != len(unique) {
		return result, ErrUnknownStudents
	}

	added, err := s.callListRepo.AddItems(callListID, unique)
	if err != nil {
		return result, fmt.Errorf("failed to enqueue items: %w", err)
	}

	result.Added = added
	result.SkippedDuplicate = int64(result.Requested) - added
	return result, nil
}

// Get returns a call list with its schema and per-state progress counts
func (s *CallListService) Get(callListID uint64) (*models.CallList, map[models.ItemState]int64, error) {
	list, err := s.callListRepo.FindByID(callListID, "Questions")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCallListNotFound
		}
		return nil, nil, fmt.Errorf("failed to find call list: %w", err)
	}

	counts, err := s.callListRepo.ItemStateCounts(callListID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count items: %w", err)
	}

	return list, counts, nil
}

// ListForWorkspace returns a page of the workspace's call lists
func (s *CallListService) ListForWorkspace(workspaceID uint64, page, pageSize int) ([]models.CallList, int64, error) {
	lists, total, err := s.callListRepo.ListByWorkspace(workspaceID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list call lists: %w", err)
	}
	return lists, total, nil
}

// UpdateQuestions replaces the schema of a list that has no answers yet.
// Once any answer references the schema the operation is rejected, because
// answers carry question uids and denormalized types.
func (s *CallListService) UpdateQuestions(callListID uint64, inputs []QuestionInput) ([]models.Question, error) {
	if _, err := s.callListRepo.FindByID(callListID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallListNotFound
		}
		return nil, fmt.Errorf("failed to find call list: %w", err)
	}

	answerCount, err := s.callListRepo.AnswerCount(callListID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}
	if answerCount > 0 {
		return nil, ErrSchemaImmutable
	}

	questions, err := buildQuestions(inputs)
	if err != nil {
		return nil, err
	}

	if err := s.callListRepo.ReplaceQuestions(callListID, questions); err != nil {
		if errors.Is(err, repository.ErrAnsweredSchema) {
			return nil, ErrSchemaImmutable
		}
		return nil, fmt.Errorf("failed to replace questions: %w", err)
	}

	return s.callListRepo.FindQuestions(callListID)
}

// CanHardDeleteCallList is the deletion policy: a list with recorded call
// logs is only ever soft-deleted so history stays reachable; an unworked list
// can be removed outright. Kept separate from the deletion transaction so the
// policy is testable on its own.
func CanHardDeleteCallList(logCount int64) bool {
	return logCount == 0
}

// Delete removes a call list (admin only, enforced at the API boundary).
// Deletion cascades to the list's items.
func (s *CallListService) Delete(callListID uint64) error {
	list, err := s.callListRepo.FindByID(callListID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCallListNotFound
		}
		return fmt.Errorf("failed to find call list: %w", err)
	}

	logCount, err := s.callListRepo.LogCount(callListID)
	if err != nil {
		return fmt.Errorf("failed to count call logs: %w", err)
	}

	if err := s.callListRepo.Delete(list, CanHardDeleteCallList(logCount)); err != nil {
		return fmt.Errorf("failed to delete call list: %w", err)
	}

	return nil
}

// resolveFilter walks the student directory page by page and collects ids.
func (s *CallListService) resolveFilter(workspaceID uint64, input StudentFilterInput) ([]uint64, error) {
	var ids []uint64

	for page := 1; ; page++ {
		students, total, err := s.studentRepo.FindByFilter(repository.StudentFilter{
			WorkspaceID: workspaceID,
			GroupID:     input.GroupID,
			Status:      input.Status,
			NameQuery:   input.NameQuery,
			Page:        page,
			PageSize:    constants.MaxPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve student filter: %w", err)
		}

		for _, st := range students {
			ids = append(ids, st.ID)
		}

		if int64(len(ids)) >= total || len(students) == 0 {
			break
		}
	}

	return ids, nil
}

// buildQuestions validates question inputs and assigns stable uids and order.
func buildQuestions(inputs []QuestionInput) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(inputs))

	for i, in := range inputs {
		if strings.TrimSpace(in.Prompt) == "" {
			return nil, ErrQuestionPromptRequired
		}
		if !models.ValidQuestionType(in.Type) {
			return nil, ErrInvalidQuestionType
		}

		q := models.Question{
			UID:        uuid.NewString(),
			Prompt:     in.Prompt,
			Type:       in.Type,
			Required:   in.Required,
			OrderIndex: i,
		}

		if in.Type == models.QuestionMultipleChoice {
			if len(in.Options) == 0 {
				return nil, ErrChoiceOptionsRequired
			}
			raw, err := json.Marshal(in.Options)
			if err != nil {
				return nil, fmt.Errorf("failed to encode options: %w", err)
			}
			q.Options = datatypes.JSON(raw)
		}

		questions = append(questions, q)
	}

	return questions, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
