package models

import (
	"time"

	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
)

// Student is a directory record. The call-list engine never mutates students;
// it only resolves id sets from them when building a list.
type Student struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	WorkspaceID uint64         `gorm:"not null;index" json:"workspace_id"`
	GroupID     *uint64        `gorm:"index" json:"group_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone       string         `gorm:"type:varchar(30)" json:"phone"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	Status      StudentStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Group *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}
