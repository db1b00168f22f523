package models

import (
	"time"

	"gorm.io/datatypes"
)

type CallLogStatus string

const (
	CallCompleted CallLogStatus = "completed"
	CallMissed    CallLogStatus = "missed"
	CallBusy      CallLogStatus = "busy"
	CallNoAnswer  CallLogStatus = "no_answer"
	CallVoicemail CallLogStatus = "voicemail"
	CallOther     CallLogStatus = "other"
)

// ValidCallLogStatus reports whether s is a recognized call outcome status.
func ValidCallLogStatus(s CallLogStatus) bool {
	switch s {
	case CallCompleted, CallMissed, CallBusy, CallNoAnswer, CallVoicemail, CallOther:
		return true
	}
	return false
}

// CallLog records one terminal attempt on a call list item. Exactly one log is
// written per DONE/SKIPPED transition, in the same transaction as the
// transition itself. Logs are append-only.
type CallLog struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	CallListItemID  uint64         `gorm:"not null;index" json:"call_list_item_id"`
	CallListID      uint64         `gorm:"not null;index" json:"call_list_id"`
	StudentID       uint64         `gorm:"not null;index" json:"student_id"`
	CallerID        uint64         `gorm:"not null" json:"caller_id"`
	Status          CallLogStatus  `gorm:"type:varchar(20);not null" json:"status"`
	CalledAt        time.Time      `gorm:"not null" json:"called_at"`
	DurationSeconds *int           `json:"duration_seconds"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CallerNote      string         `gorm:"type:text" json:"caller_note"`
	SummaryNote     string         `gorm:"type:text" json:"summary_note"`
	FollowupNeeded  bool           `gorm:"not null;default:false" json:"followup_needed"`
	FollowupDueAt   *time.Time     `json:"followup_due_at"`
	FollowupNote    string         `gorm:"type:text" json:"followup_note"`
	CreatedAt       time.Time      `json:"created_at"`

	// Relations
	Answers []Answer `gorm:"foreignKey:CallLogID" json:"answers,omitempty"`
	Caller  User     `gorm:"foreignKey:CallerID" json:"caller,omitempty"`
}

// Answer stores one validated response. QuestionType is denormalized at answer
// time so historical answers render correctly even if the schema could change.
type Answer struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	CallLogID    uint64         `gorm:"not null;index" json:"call_log_id"`
	QuestionUID  string         `gorm:"type:varchar(36);not null;index" json:"question_uid"`
	QuestionType QuestionType   `gorm:"type:varchar(20);not null" json:"question_type"`
	Value        datatypes.JSON `json:"value"`
	CreatedAt    time.Time      `json:"created_at"`
}
