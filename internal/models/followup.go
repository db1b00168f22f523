package models

import "time"

type FollowupStatus string

const (
	FollowupPending FollowupStatus = "PENDING"
	FollowupDone    FollowupStatus = "DONE"
	FollowupSkipped FollowupStatus = "SKIPPED"
)

// Followup is a scheduled future contact derived from a call outcome.
// Overdue is never stored; it is derived at read time from Status and DueAt.
type Followup struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	StudentID   uint64         `gorm:"not null;index" json:"student_id"`
	CallListID  *uint64        `gorm:"index" json:"call_list_id"`
	GroupID     *uint64        `gorm:"index" json:"group_id"`
	CallLogID   uint64         `gorm:"not null;index" json:"call_log_id"`
	DueAt       time.Time      `gorm:"not null;index" json:"due_at"`
	Status      FollowupStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	AssigneeID  *uint64        `gorm:"index" json:"assignee_id"`
	Note        string         `gorm:"type:text" json:"note"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations
	Student  Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Assignee *User    `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	CallLog  *CallLog `gorm:"foreignKey:CallLogID" json:"call_log,omitempty"`
}

// IsOverdue reports whether the followup is pending and past due at the given
// moment. Computed per query, never persisted.
func (f Followup) IsOverdue(now time.Time) bool {
	return f.Status == FollowupPending && f.DueAt.Before(now)
}
