package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CallListSource string

const (
	SourceManual CallListSource = "MANUAL"
	SourceFilter CallListSource = "FILTER"
)

// CallList is a named queue of students to call for one campaign, with an
// attached question schema. A list is workspace-wide when GroupID is nil.
type CallList struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	GroupID     *uint64        `gorm:"index" json:"group_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Source      CallListSource `gorm:"type:varchar(20);not null" json:"source"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Questions []Question     `gorm:"foreignKey:CallListID" json:"questions,omitempty"`
	Items     []CallListItem `gorm:"foreignKey:CallListID" json:"items,omitempty"`
}

type QuestionType string

const (
	QuestionYesNo          QuestionType = "yes_no"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionNumber         QuestionType = "number"
	QuestionDate           QuestionType = "date"
	QuestionText           QuestionType = "text"
)

// ValidQuestionType reports whether t is one of the supported question types.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionYesNo, QuestionMultipleChoice, QuestionNumber, QuestionDate, QuestionText:
		return true
	}
	return false
}

// Question belongs to exactly one call list's schema. UID is generated once at
// creation and is what answers reference, so it stays stable even if display
// order changes.
type Question struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	CallListID uint64         `gorm:"not null;index" json:"call_list_id"`
	UID        string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uid"`
	Prompt     string         `gorm:"type:text;not null" json:"prompt"`
	Type       QuestionType   `gorm:"type:varchar(20);not null" json:"type"`
	Required   bool           `gorm:"not null;default:false" json:"required"`
	Options    datatypes.JSON `json:"options"`
	OrderIndex int            `gorm:"not null;default:0" json:"order_index"`
	CreatedAt  time.Time      `json:"created_at"`
}

// OptionList decodes the multiple-choice option set. Returns nil for
// questions of other types or an empty options column.
func (q Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}
