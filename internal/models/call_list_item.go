package models

import "time"

type ItemState string

const (
	ItemQueued  ItemState = "QUEUED"
	ItemCalling ItemState = "CALLING"
	ItemDone    ItemState = "DONE"
	ItemSkipped ItemState = "SKIPPED"
)

// Terminal reports whether the state admits no further transitions.
func (s ItemState) Terminal() bool {
	return s == ItemDone || s == ItemSkipped
}

// CallListItem is one (call list, student) work unit. State moves
// QUEUED→CALLING→{DONE,SKIPPED}; CALLING→QUEUED only via an explicit release.
// The (call_list_id, student_id) pair is unique for the life of the list.
type CallListItem struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	CallListID  uint64     `gorm:"not null;uniqueIndex:uq_call_list_student" json:"call_list_id"`
	StudentID   uint64     `gorm:"not null;uniqueIndex:uq_call_list_student" json:"student_id"`
	State       ItemState  `gorm:"type:varchar(20);not null;default:'QUEUED'" json:"state"`
	AssigneeID  *uint64    `gorm:"index" json:"assignee_id"`
	ClaimedAt   *time.Time `json:"claimed_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	CallList CallList `gorm:"foreignKey:CallListID" json:"call_list,omitempty"`
	Student  Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Assignee *User    `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}
