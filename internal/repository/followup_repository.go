package repository

import (
	"time"

	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/gorm"
)

// GormFollowupRepository is a GORM implementation of FollowupRepository
type GormFollowupRepository struct {
	db *gorm.DB
}

// NewFollowupRepository creates a new FollowupRepository
func NewFollowupRepository(db *gorm.DB) FollowupRepository {
	return &GormFollowupRepository{db: db}
}

// Create creates a followup
func (r *GormFollowupRepository) Create(followup *models.Followup) error {
	return r.db.Create(followup).Error
}

// FindByID finds a followup by ID
func (r *GormFollowupRepository) FindByID(id uint64, preload ...string) (*models.Followup, error) {
	var followup models.Followup
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&followup, id).Error; err != nil {
		return nil, err
	}

	return &followup, nil
}

// List retrieves followups with filtering and pagination, soonest due first
func (r *GormFollowupRepository) List(filter FollowupFilter) ([]models.Followup, int64, error) {
	var followups []models.Followup

	query := r.db.Model(&models.Followup{}).Where("workspace_id = ?", filter.WorkspaceID)

	if filter.CallListID != nil {
		query = query.Where("call_list_id = ?", *filter.CallListID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_at >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_at < ?", *filter.DueTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("due_at ASC, id ASC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Student").Preload("Assignee").Find(&followups).Error; err != nil {
		return nil, 0, err
	}

	return followups, total, nil
}

// Transition conditionally moves a PENDING followup to a terminal status. The
// status condition keeps DONE/SKIPPED terminal even under concurrent patches.
func (r *GormFollowupRepository) Transition(id uint64, to models.FollowupStatus, now time.Time) (bool, error) {
	result := r.db.Model(&models.Followup{}).
		Where("id = ? AND status = ?", id, models.FollowupPending).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
