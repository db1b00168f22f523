package models

import (
	"time"

	"gorm.io/gorm"
)

type Workspace struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members   []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Groups    []Group           `gorm:"foreignKey:WorkspaceID" json:"groups,omitempty"`
	CallLists []CallList        `gorm:"foreignKey:WorkspaceID" json:"call_lists,omitempty"`
}
