package dto

import (
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
)

// WorkspaceDTO represents a workspace in API responses
type WorkspaceDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code,omitempty"`
}

// WorkspaceWithRoleDTO represents a workspace with the user's role
type WorkspaceWithRoleDTO struct {
	WorkspaceDTO
	Role models.WorkspaceRole `json:"role"`
}

// WorkspaceMemberDTO represents a member in a workspace
type WorkspaceMemberDTO struct {
	User     UserDTO              `json:"user"`
	Role     models.WorkspaceRole `json:"role"`
	JoinedAt time.Time            `json:"joined_at"`
}

// ToWorkspaceDTO converts a Workspace model to WorkspaceDTO
func ToWorkspaceDTO(ws models.Workspace, includeInviteCode bool) WorkspaceDTO {
	dto := WorkspaceDTO{
		ID:   ws.ID,
		Name: ws.Name,
	}
	if includeInviteCode {
		dto.InviteCode = ws.InviteCode
	}
	return dto
}

// ToWorkspaceWithRoleDTO converts a membership to DTO with role
func ToWorkspaceWithRoleDTO(member models.WorkspaceMember) WorkspaceWithRoleDTO {
	return WorkspaceWithRoleDTO{
		WorkspaceDTO: ToWorkspaceDTO(member.Workspace, false),
		Role:         member.Role,
	}
}

// ToWorkspaceMemberDTO converts a member to DTO
func ToWorkspaceMemberDTO(member models.WorkspaceMember) WorkspaceMemberDTO {
	return WorkspaceMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}
