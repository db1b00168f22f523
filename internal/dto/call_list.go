package dto

import (
	"encoding/json"
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
)

// QuestionDTO represents one schema question in API responses
type QuestionDTO struct {
	ID         string              `json:"id"`
	Prompt     string              `json:"prompt"`
	Type       models.QuestionType `json:"type"`
	Required   bool                `json:"required"`
	Options    []string            `json:"options,omitempty"`
	OrderIndex int                 `json:"order_index"`
}

// CallListDTO represents a call list in API responses
type CallListDTO struct {
	ID          uint64                `json:"id"`
	WorkspaceID uint64                `json:"workspace_id"`
	GroupID     *uint64               `json:"group_id"`
	Name        string                `json:"name"`
	Source      models.CallListSource `json:"source"`
	Metadata    json.RawMessage       `json:"metadata,omitempty"`
	Questions   []QuestionDTO         `json:"questions,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// CallListDetailDTO adds per-state progress counts
type CallListDetailDTO struct {
	CallListDTO
	Progress map[models.ItemState]int64 `json:"progress"`
}

// CallListItemDTO represents a queue entry in API responses
type CallListItemDTO struct {
	ID          uint64           `json:"id"`
	CallListID  uint64           `json:"call_list_id"`
	StudentID   uint64           `json:"student_id"`
	State       models.ItemState `json:"state"`
	AssigneeID  *uint64          `json:"assignee_id"`
	ClaimedAt   *time.Time       `json:"claimed_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Student     *StudentDTO      `json:"student,omitempty"`
	Assignee    *UserDTO         `json:"assignee,omitempty"`
}

// StudentDTO represents a student in API responses
type StudentDTO struct {
	ID     uint64               `json:"id"`
	Name   string               `json:"name"`
	Phone  string               `json:"phone"`
	Email  string               `json:"email"`
	Status models.StudentStatus `json:"status"`
}

// CallLogDTO represents a recorded call outcome in API responses
type CallLogDTO struct {
	ID              uint64               `json:"id"`
	CallListItemID  uint64               `json:"call_list_item_id"`
	StudentID       uint64               `json:"student_id"`
	CallerID        uint64               `json:"caller_id"`
	Status          models.CallLogStatus `json:"status"`
	CalledAt        time.Time            `json:"called_at"`
	DurationSeconds *int                 `json:"duration_seconds"`
	Notes           string               `json:"notes"`
	CallerNote      string               `json:"caller_note"`
	SummaryNote     string               `json:"summary_note"`
	FollowupNeeded  bool                 `json:"followup_needed"`
	Answers         []AnswerDTO          `json:"answers,omitempty"`
}

// AnswerDTO represents one recorded answer
type AnswerDTO struct {
	QuestionID   string              `json:"question_id"`
	QuestionType models.QuestionType `json:"question_type"`
	Value        json.RawMessage     `json:"value"`
}

// Conversion functions

// ToQuestionDTO converts a Question model to QuestionDTO. The exposed id is
// the stable uid answers reference, not the row id.
func ToQuestionDTO(q models.Question) QuestionDTO {
	return QuestionDTO{
		ID:         q.UID,
		Prompt:     q.Prompt,
		Type:       q.Type,
		Required:   q.Required,
		Options:    q.OptionList(),
		OrderIndex: q.OrderIndex,
	}
}

// ToCallListDTO converts a CallList model to CallListDTO
func ToCallListDTO(list models.CallList) CallListDTO {
	dto := CallListDTO{
		ID:          list.ID,
		WorkspaceID: list.WorkspaceID,
		GroupID:     list.GroupID,
		Name:        list.Name,
		Source:      list.Source,
		Metadata:    json.RawMessage(list.Metadata),
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}

	if len(list.Questions) > 0 {
		dto.Questions = make([]QuestionDTO, len(list.Questions))
		for i, q := range list.Questions {
			dto.Questions[i] = ToQuestionDTO(q)
		}
	}

	return dto
}

// ToCallListDetailDTO converts a call list plus progress counts. Every state
// appears in the progress map even when its count is zero.
func ToCallListDetailDTO(list models.CallList, counts map[models.ItemState]int64) CallListDetailDTO {
	progress := map[models.ItemState]int64{
		models.ItemQueued:  0,
		models.ItemCalling: 0,
		models.ItemDone:    0,
		models.ItemSkipped: 0,
	}
	for state, count := range counts {
		progress[state] = count
	}

	return CallListDetailDTO{
		CallListDTO: ToCallListDTO(list),
		Progress:    progress,
	}
}

// ToStudentDTO converts a Student model to StudentDTO
func ToStudentDTO(student models.Student) StudentDTO {
	return StudentDTO{
		ID:     student.ID,
		Name:   student.Name,
		Phone:  student.Phone,
		Email:  student.Email,
		Status: student.Status,
	}
}

// ToCallListItemDTO converts a CallListItem model to CallListItemDTO
func ToCallListItemDTO(item models.CallListItem) CallListItemDTO {
	dto := CallListItemDTO{
		ID:          item.ID,
		CallListID:  item.CallListID,
		StudentID:   item.StudentID,
		State:       item.State,
		AssigneeID:  item.AssigneeID,
		ClaimedAt:   item.ClaimedAt,
		CompletedAt: item.CompletedAt,
	}

	if item.Student.ID != 0 {
		student := ToStudentDTO(item.Student)
		dto.Student = &student
	}
	if item.Assignee != nil && item.Assignee.ID != 0 {
		assignee := ToUserDTO(*item.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToCallLogDTO converts a CallLog model to CallLogDTO
func ToCallLogDTO(log models.CallLog) CallLogDTO {
	dto := CallLogDTO{
		ID:              log.ID,
		CallListItemID:  log.CallListItemID,
		StudentID:       log.StudentID,
		CallerID:        log.CallerID,
		Status:          log.Status,
		CalledAt:        log.CalledAt,
		DurationSeconds: log.DurationSeconds,
		Notes:           log.Notes,
		CallerNote:      log.CallerNote,
		SummaryNote:     log.SummaryNote,
		FollowupNeeded:  log.FollowupNeeded,
	}

	if len(log.Answers) > 0 {
		dto.Answers = make([]AnswerDTO, len(log.Answers))
		for i, a := range log.Answers {
			dto.Answers[i] = AnswerDTO{
				QuestionID:   a.QuestionUID,
				QuestionType: a.QuestionType,
				Value:        json.RawMessage(a.Value),
			}
		}
	}

	return dto
}
