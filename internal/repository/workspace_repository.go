package repository

import (
	"errors"

	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/gorm"
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// Create creates a new workspace
func (r *GormWorkspaceRepository) Create(ws *models.Workspace) error {
	return r.db.Create(ws).Error
}

// FindByInviteCode finds a workspace by invite code
func (r *GormWorkspaceRepository) FindByInviteCode(code string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.Where("invite_code = ?", code).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// AddMember adds a member to a workspace
func (r *GormWorkspaceRepository) AddMember(member *models.WorkspaceMember) error {
	return r.db.Create(member).Error
}

// FindMember finds a specific workspace member
func (r *GormWorkspaceRepository) FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists all workspaces a user is a member of
func (r *GormWorkspaceRepository) ListMembersByUserID(userID uint64) ([]models.WorkspaceMember, error) {
	var memberships []models.WorkspaceMember
	if err := r.db.Preload("Workspace").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all members of a workspace
func (r *GormWorkspaceRepository) ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	if err := r.db.Preload("User").
		Where("workspace_id = ?", workspaceID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// GrantGroupAccess gives a caller access to a group's call lists
func (r *GormWorkspaceRepository) GrantGroupAccess(access *models.MemberGroupAccess) error {
	return r.db.Create(access).Error
}

// HasGroupAccess reports whether the member may work group-scoped lists
func (r *GormWorkspaceRepository) HasGroupAccess(workspaceID, userID, groupID uint64) (bool, error) {
	var access models.MemberGroupAccess
	err := r.db.
		Where("workspace_id = ? AND user_id = ? AND group_id = ?", workspaceID, userID, groupID).
		First(&access).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
