package models

import "time"

type WorkspaceRole string

const (
	RoleAdmin  WorkspaceRole = "admin"
	RoleCaller WorkspaceRole = "caller"
)

type WorkspaceMember struct {
	WorkspaceID uint64        `gorm:"primarykey" json:"workspace_id"`
	UserID      uint64        `gorm:"primarykey" json:"user_id"`
	Role        WorkspaceRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt    time.Time     `json:"joined_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsAdmin reports whether the member holds the admin role.
func (m WorkspaceMember) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// MemberGroupAccess grants a caller access to a group's call lists.
// Admins have implicit access to every group in the workspace.
type MemberGroupAccess struct {
	WorkspaceID uint64    `gorm:"primarykey" json:"workspace_id"`
	UserID      uint64    `gorm:"primarykey" json:"user_id"`
	GroupID     uint64    `gorm:"primarykey" json:"group_id"`
	CreatedAt   time.Time `json:"created_at"`
}
