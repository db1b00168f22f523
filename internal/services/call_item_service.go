package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"github.com/yutasato/campus-crm-api/internal/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrItemNotFound      = errors.New("call list item not found")
	ErrItemNotClaimable  = errors.New("item is not available to claim")
	ErrNoQueuedItems     = errors.New("no queued items left on this call list")
	ErrItemNotCalling    = errors.New("item is not being called")
	ErrNotItemAssignee   = errors.New("item is assigned to another caller")
	ErrInvalidCallStatus = errors.New("unknown call status")
	ErrDueBeforeCallDate = errors.New("follow-up due date cannot be earlier than the call date")
)

// AnswerValidationError carries the full validation result so the API layer
// can return every violated rule in one response.
type AnswerValidationError struct {
	Result validation.Result
}

func (e *AnswerValidationError) Error() string {
	return fmt.Sprintf("answers failed validation (%d errors)", len(e.Result.Errors))
}

// CallItemService owns the per-item state machine: claiming, releasing and
// recording outcomes. Transitions are decided by conditional updates at the
// repository layer; this service adds authorization and validation around them.
type CallItemService struct {
	itemRepo     repository.CallItemRepository
	callListRepo repository.CallListRepository
	followupSvc  *FollowupService
}

// NewCallItemService creates a new CallItemService
func NewCallItemService(itemRepo repository.CallItemRepository, callListRepo repository.CallListRepository, followupSvc *FollowupService) *CallItemService {
	return &CallItemService{
		itemRepo:     itemRepo,
		callListRepo: callListRepo,
		followupSvc:  followupSvc,
	}
}

// Claim moves a QUEUED item to CALLING for the caller. The repository update
// conditions on the QUEUED state, so of N concurrent claims exactly one wins;
// losers get ErrItemNotClaimable and should pick another item.
func (s *CallItemService) Claim(callListID, itemID, callerID uint64) (*models.CallListItem, error) {
	item, err := s.itemRepo.FindByID(callListID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	if item.State != models.ItemQueued {
		return nil, ErrItemNotClaimable
	}

	ok, err := s.itemRepo.Claim(item.ID, callerID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim item: %w", err)
	}
	if !ok {
		return nil, ErrItemNotClaimable
	}

	return s.itemRepo.FindByID(callListID, item.ID, "Student")
}

// ClaimNext claims the oldest QUEUED item on the list. A lost race moves on to
// the next queue head, bounded so a hot queue cannot spin forever.
func (s *CallItemService) ClaimNext(callListID, callerID uint64) (*models.CallListItem, error) {
	for attempt := 0; attempt < constants.ClaimNextAttempts; attempt++ {
		item, err := s.itemRepo.FirstQueued(callListID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoQueuedItems
			}
			return nil, fmt.Errorf("failed to find queued item: %w", err)
		}

		ok, err := s.itemRepo.Claim(item.ID, callerID, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to claim item: %w", err)
		}
		if ok {
			return s.itemRepo.FindByID(callListID, item.ID, "Student")
		}
	}

	return nil, ErrItemNotClaimable
}

// Release abandons a claim, returning the item to QUEUED without a log. Only
// the current assignee may release; admins may force-release anyone's claim.
func (s *CallItemService) Release(callListID, itemID, callerID uint64, isAdmin bool) (*models.CallListItem, error) {
	item, err := s.itemRepo.FindByID(callListID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	if item.State != models.ItemCalling {
		return nil, ErrItemNotCalling
	}
	if !isAdmin && (item.AssigneeID == nil || *item.AssigneeID != callerID) {
		return nil, ErrNotItemAssignee
	}

	assigneeCond := &callerID
	if isAdmin {
		assigneeCond = nil
	}

	ok, err := s.itemRepo.Release(item.ID, assigneeCond, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to release item: %w", err)
	}
	if !ok {
		return nil, ErrItemNotCalling
	}

	return s.itemRepo.FindByID(callListID, item.ID)
}

// CallOutcome is the full payload a caller submits when closing out an item.
type CallOutcome struct {
	Status          models.CallLogStatus
	Skipped         bool
	CalledAt        *time.Time
	DurationSeconds *int
	Notes           string
	CallerNote      string
	SummaryNote     string
	Answers         []validation.SubmittedAnswer
	FollowupNeeded  bool
	FollowupDueAt   *time.Time
	FollowupNote    string
}

// terminalState maps an outcome to the item's terminal state. The mapping is
// total: an explicit skip wins, every submitted call status closes as DONE.
func terminalState(outcome CallOutcome) models.ItemState {
	if outcome.Skipped {
		return models.ItemSkipped
	}
	return models.ItemDone
}

// followupWanted reports whether the outcome asks for a follow-up, either
// explicitly or because nobody picked up.
func followupWanted(outcome CallOutcome) bool {
	return outcome.FollowupNeeded || outcome.Status == models.CallNoAnswer
}

// Complete validates the outcome's answers against the list's question schema,
// then records the call log, the terminal transition and the optional followup
// in one transaction. A validation failure changes nothing: the item stays
// CALLING so the caller can fix the answers and resubmit.
func (s *CallItemService) Complete(callListID, itemID, callerID uint64, outcome CallOutcome) (*models.CallListItem, *models.CallLog, error) {
	item, err := s.itemRepo.FindByID(callListID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrItemNotFound
		}
		return nil, nil, fmt.Errorf("failed to find item: %w", err)
	}

	if item.State != models.ItemCalling {
		return nil, nil, ErrItemNotCalling
	}
	if item.AssigneeID == nil || *item.AssigneeID != callerID {
		return nil, nil, ErrNotItemAssignee
	}

	if !models.ValidCallLogStatus(outcome.Status) {
		return nil, nil, ErrInvalidCallStatus
	}

	questions, err := s.callListRepo.FindQuestions(callListID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load question schema: %w", err)
	}

	// A skipped item never had a call, so required answers are waived; any
	// answers that were submitted must still type-check.
	result := validation.ValidateWithOptions(outcome.Answers, questions, validation.Options{
		SkipRequiredCheck: outcome.Skipped,
	})
	if !result.Valid {
		return nil, nil, &AnswerValidationError{Result: result}
	}

	calledAt := time.Now()
	if outcome.CalledAt != nil {
		calledAt = *outcome.CalledAt
	}

	list, err := s.callListRepo.FindByID(callListID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load call list: %w", err)
	}

	answers, err := buildAnswers(outcome.Answers, questions)
	if err != nil {
		return nil, nil, err
	}

	log := &models.CallLog{
		CallListItemID:  item.ID,
		CallListID:      callListID,
		StudentID:       item.StudentID,
		CallerID:        callerID,
		Status:          outcome.Status,
		CalledAt:        calledAt,
		DurationSeconds: outcome.DurationSeconds,
		Notes:           outcome.Notes,
		CallerNote:      outcome.CallerNote,
		SummaryNote:     outcome.SummaryNote,
		FollowupNeeded:  followupWanted(outcome),
		FollowupDueAt:   outcome.FollowupDueAt,
		FollowupNote:    outcome.FollowupNote,
		Answers:         answers,
	}

	var followup *models.Followup
	if followupWanted(outcome) {
		dueAt, err := s.followupSvc.ResolveDueDate(calledAt, outcome.FollowupDueAt)
		if err != nil {
			return nil, nil, err
		}
		followup = &models.Followup{
			WorkspaceID: list.WorkspaceID,
			StudentID:   item.StudentID,
			CallListID:  &list.ID,
			GroupID:     list.GroupID,
			DueAt:       dueAt,
			Status:      models.FollowupPending,
			AssigneeID:  &callerID,
			Note:        outcome.FollowupNote,
		}
	}

	err = s.itemRepo.CompleteTx(item.ID, callerID, terminalState(outcome), log, followup, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrStaleItem) {
			return nil, nil, ErrNotItemAssignee
		}
		return nil, nil, fmt.Errorf("failed to record call outcome: %w", err)
	}

	updated, err := s.itemRepo.FindByID(callListID, item.ID, "Student")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload item: %w", err)
	}

	return updated, log, nil
}

// ListItems returns a page of the list's queue
func (s *CallItemService) ListItems(filter repository.ItemFilter) ([]models.CallListItem, int64, error) {
	items, total, err := s.itemRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return items, total, nil
}

// buildAnswers converts submitted answers to rows, denormalizing the question
// type at answer time. Validation has already guaranteed every uid resolves.
func buildAnswers(submitted []validation.SubmittedAnswer, questions []models.Question) ([]models.Answer, error) {
	typeByUID := make(map[string]models.QuestionType, len(questions))
	for _, q := range questions {
		typeByUID[q.UID] = q.Type
	}

	answers := make([]models.Answer, 0, len(submitted))
	for _, a := range submitted {
		raw, err := json.Marshal(a.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode answer for question %s: %w", a.QuestionUID, err)
		}
		answers = append(answers, models.Answer{
			QuestionUID:  a.QuestionUID,
			QuestionType: typeByUID[a.QuestionUID],
			Value:        datatypes.JSON(raw),
		})
	}
	return answers, nil
}
