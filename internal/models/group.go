package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a cohort of students (a batch or class). The call-list engine
// only reads groups, for scoping and display.
type Group struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Students []Student `gorm:"foreignKey:GroupID" json:"students,omitempty"`
}
