package dto

import (
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
)

// FollowupDTO represents a followup in API responses. IsOverdue is computed
// against the clock at conversion time and never stored.
type FollowupDTO struct {
	ID         uint64                `json:"id"`
	StudentID  uint64                `json:"student_id"`
	CallListID *uint64               `json:"call_list_id"`
	GroupID    *uint64               `json:"group_id"`
	CallLogID  uint64                `json:"call_log_id"`
	DueAt      time.Time             `json:"due_at"`
	Status     models.FollowupStatus `json:"status"`
	AssigneeID *uint64               `json:"assignee_id"`
	Note       string                `json:"note"`
	IsOverdue  bool                  `json:"is_overdue"`
	Student    *StudentDTO           `json:"student,omitempty"`
	Assignee   *UserDTO              `json:"assignee,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ToFollowupDTO converts a Followup model, deriving IsOverdue at now.
func ToFollowupDTO(f models.Followup, now time.Time) FollowupDTO {
	dto := FollowupDTO{
		ID:         f.ID,
		StudentID:  f.StudentID,
		CallListID: f.CallListID,
		GroupID:    f.GroupID,
		CallLogID:  f.CallLogID,
		DueAt:      f.DueAt,
		Status:     f.Status,
		AssigneeID: f.AssigneeID,
		Note:       f.Note,
		IsOverdue:  f.IsOverdue(now),
		CreatedAt:  f.CreatedAt,
	}

	if f.Student.ID != 0 {
		student := ToStudentDTO(f.Student)
		dto.Student = &student
	}
	if f.Assignee != nil && f.Assignee.ID != 0 {
		assignee := ToUserDTO(*f.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToFollowupDTOs converts a slice with a single clock reading.
func ToFollowupDTOs(followups []models.Followup, now time.Time) []FollowupDTO {
	dtos := make([]FollowupDTO, len(followups))
	for i, f := range followups {
		dtos[i] = ToFollowupDTO(f, now)
	}
	return dtos
}
