package repository

import (
	"errors"
	"fmt"

	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateWorkspace is returned when creating a workspace fails inside the signup transaction.
	ErrCreateWorkspace = errors.New("user repository: create workspace failed")
	// ErrCreateWorkspaceMember is returned when creating a workspace member fails inside the signup transaction.
	ErrCreateWorkspaceMember = errors.New("user repository: create workspace member failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithPersonalWorkspace creates a user, a personal workspace, and the admin membership atomically.
func (r *GormUserRepository) CreateWithPersonalWorkspace(user *models.User, ws *models.Workspace, member *models.WorkspaceMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		if err := tx.Create(ws).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspace, err)
		}

		member.WorkspaceID = ws.ID
		member.UserID = user.ID

		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspaceMember, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
