package repository

import (
	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/gorm"
)

// GormStudentRepository is a read-only GORM implementation of StudentRepository
type GormStudentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByFilter resolves a saved filter one page at a time
func (r *GormStudentRepository) FindByFilter(filter StudentFilter) ([]models.Student, int64, error) {
	var students []models.Student

	query := r.db.Model(&models.Student{}).Where("workspace_id = ?", filter.WorkspaceID)

	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.NameQuery != "" {
		query = query.Where("name LIKE ?", "%"+filter.NameQuery+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("id ASC").Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

// CountByIDs counts how many of the given student IDs exist in the workspace
func (r *GormStudentRepository) CountByIDs(studentIDs []uint64, workspaceID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Student{}).
		Where("workspace_id = ? AND id IN ?", workspaceID, studentIDs).
		Count(&count).Error
	return count, err
}
