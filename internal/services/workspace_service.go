package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"github.com/yutasato/campus-crm-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrInvalidWorkspaceName = errors.New("workspace name cannot be empty")
	ErrInviteCodeFailed     = errors.New("failed to generate invite code")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrAlreadyMember        = errors.New("user is already a member of this workspace")
	ErrMemberNotFound       = errors.New("workspace member not found")
)

// WorkspaceService provides business logic for workspace membership.
type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
	}
}

// CreateWorkspaceInput represents parameters to create a new workspace.
type CreateWorkspaceInput struct {
	Name    string
	AdminID uint64
}

// CreateWorkspace creates a new workspace and assigns the creating admin.
func (s *WorkspaceService) CreateWorkspace(input CreateWorkspaceInput) (*models.Workspace, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidWorkspaceName
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeFailed
	}

	ws := &models.Workspace{
		Name:       input.Name,
		InviteCode: inviteCode,
	}

	if err := s.workspaceRepo.Create(ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      input.AdminID,
		Role:        models.RoleAdmin,
		JoinedAt:    time.Now(),
	}

	if err := s.workspaceRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add admin to workspace: %w", err)
	}

	return ws, nil
}

// JoinWorkspace adds a user as a caller via invite code.
func (s *WorkspaceService) JoinWorkspace(inviteCode string, userID uint64) (*models.Workspace, error) {
	ws, err := s.workspaceRepo.FindByInviteCode(strings.TrimSpace(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if _, err := s.workspaceRepo.FindMember(ws.ID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      userID,
		Role:        models.RoleCaller,
		JoinedAt:    time.Now(),
	}

	if err := s.workspaceRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to join workspace: %w", err)
	}

	return ws, nil
}

// ListWorkspacesForUser returns workspaces the user belongs to.
func (s *WorkspaceService) ListWorkspacesForUser(userID uint64) ([]models.WorkspaceMember, error) {
	memberships, err := s.workspaceRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return memberships, nil
}

// GetMember returns a user's membership in a workspace.
func (s *WorkspaceService) GetMember(workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	member, err := s.workspaceRepo.FindMember(workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return member, nil
}

// ListMembers returns all members of a workspace.
func (s *WorkspaceService) ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error) {
	members, err := s.workspaceRepo.ListMembers(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// GrantGroupAccess lets an admin open a group's call lists to a caller.
func (s *WorkspaceService) GrantGroupAccess(workspaceID, userID, groupID uint64) error {
	if _, err := s.workspaceRepo.FindMember(workspaceID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find member: %w", err)
	}

	already, err := s.workspaceRepo.HasGroupAccess(workspaceID, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to check group access: %w", err)
	}
	if already {
		return nil
	}

	access := &models.MemberGroupAccess{
		WorkspaceID: workspaceID,
		UserID:      userID,
		GroupID:     groupID,
	}
	if err := s.workspaceRepo.GrantGroupAccess(access); err != nil {
		return fmt.Errorf("failed to grant group access: %w", err)
	}

	return nil
}

// HasGroupAccess is the capability check used before a caller works a
// group-scoped call list. Admins always pass; workspace-wide lists (no group)
// are open to every member.
func (s *WorkspaceService) HasGroupAccess(member models.WorkspaceMember, groupID *uint64) (bool, error) {
	if member.IsAdmin() || groupID == nil {
		return true, nil
	}
	return s.workspaceRepo.HasGroupAccess(member.WorkspaceID, member.UserID, *groupID)
}
