package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrFollowupNotFound      = errors.New("followup not found")
	ErrFollowupAlreadyClosed = errors.New("followup is already done or skipped")
	ErrInvalidFollowupStatus = errors.New("followup can only move to DONE or SKIPPED")
)

// FollowupService schedules follow-up tasks from call outcomes and answers
// overdue queries. Overdue is always derived against the query-time clock.
type FollowupService struct {
	followupRepo repository.FollowupRepository
	offsetDays   int
}

// NewFollowupService creates a new FollowupService. offsetDays is the default
// due-date offset applied when an outcome requests a follow-up without a date.
func NewFollowupService(followupRepo repository.FollowupRepository, offsetDays int) *FollowupService {
	return &FollowupService{
		followupRepo: followupRepo,
		offsetDays:   offsetDays,
	}
}

// ResolveDueDate picks the follow-up due date for a call made at calledAt.
// A requested date earlier than the call date is rejected; no requested date
// means the configured default offset from the call date.
func (s *FollowupService) ResolveDueDate(calledAt time.Time, requested *time.Time) (time.Time, error) {
	if requested != nil {
		if requested.Before(calledAt) {
			return time.Time{}, ErrDueBeforeCallDate
		}
		return *requested, nil
	}
	return calledAt.AddDate(0, 0, s.offsetDays), nil
}

// ListFollowupsInput represents filters for listing followups
type ListFollowupsInput struct {
	WorkspaceID uint64
	CallListID  *uint64
	Status      *models.FollowupStatus
	AssigneeID  *uint64
	DueFrom     *time.Time
	DueTo       *time.Time
	Page        int
	PageSize    int
}

// List returns a page of followups matching the filters
func (s *FollowupService) List(input ListFollowupsInput) ([]models.Followup, int64, error) {
	followups, total, err := s.followupRepo.List(repository.FollowupFilter{
		WorkspaceID: input.WorkspaceID,
		CallListID:  input.CallListID,
		Status:      input.Status,
		AssigneeID:  input.AssigneeID,
		DueFrom:     input.DueFrom,
		DueTo:       input.DueTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list followups: %w", err)
	}
	return followups, total, nil
}

// Get returns a followup scoped to the workspace
func (s *FollowupService) Get(workspaceID, followupID uint64) (*models.Followup, error) {
	followup, err := s.followupRepo.FindByID(followupID, "Student", "CallLog")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFollowupNotFound
		}
		return nil, fmt.Errorf("failed to find followup: %w", err)
	}
	if followup.WorkspaceID != workspaceID {
		return nil, ErrFollowupNotFound
	}
	return followup, nil
}

// Transition closes a PENDING followup as DONE or SKIPPED. Both are terminal;
// the conditional update keeps them terminal under concurrent patches.
func (s *FollowupService) Transition(workspaceID, followupID uint64, to models.FollowupStatus) (*models.Followup, error) {
	if to != models.FollowupDone && to != models.FollowupSkipped {
		return nil, ErrInvalidFollowupStatus
	}

	followup, err := s.Get(workspaceID, followupID)
	if err != nil {
		return nil, err
	}
	if followup.Status != models.FollowupPending {
		return nil, ErrFollowupAlreadyClosed
	}

	ok, err := s.followupRepo.Transition(followup.ID, to, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to transition followup: %w", err)
	}
	if !ok {
		return nil, ErrFollowupAlreadyClosed
	}

	return s.followupRepo.FindByID(followup.ID, "Student")
}
