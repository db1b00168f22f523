package repository

import (
	"errors"

	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAnsweredSchema is returned by ReplaceQuestions when an answer was
// recorded against the schema concurrently with the replace.
var ErrAnsweredSchema = errors.New("call list repository: schema already has answers")

// GormCallListRepository is a GORM implementation of CallListRepository
type GormCallListRepository struct {
	db *gorm.DB
}

// NewCallListRepository creates a new CallListRepository
func NewCallListRepository(db *gorm.DB) CallListRepository {
	return &GormCallListRepository{db: db}
}

// CreateWithQuestions creates a call list and its question schema atomically
func (r *GormCallListRepository) CreateWithQuestions(list *models.CallList, questions []models.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].CallListID = list.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID finds a call list by ID with optional preloading
func (r *GormCallListRepository) FindByID(id uint64, preload ...string) (*models.CallList, error) {
	var list models.CallList
	query := r.db

	for _, p := range preload {
		if p == "Questions" {
			query = query.Preload(p, func(db *gorm.DB) *gorm.DB {
				return db.Order("order_index ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&list, id).Error; err != nil {
		return nil, err
	}

	return &list, nil
}

// ListByWorkspace retrieves call lists for a workspace, newest first
func (r *GormCallListRepository) ListByWorkspace(workspaceID uint64, page, pageSize int) ([]models.CallList, int64, error) {
	var lists []models.CallList

	query := r.db.Model(&models.CallList{}).Where("workspace_id = ?", workspaceID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Scopes(database.Paginate(page, pageSize))

	if err := listQuery.Find(&lists).Error; err != nil {
		return nil, 0, err
	}

	return lists, total, nil
}

// FindQuestions returns the list's question schema in ask order
func (r *GormCallListRepository) FindQuestions(callListID uint64) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.
		Where("call_list_id = ?", callListID).
		Order("order_index ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// ReplaceQuestions swaps the question schema inside a transaction. The answer
// count is re-checked inside the transaction so an answer recorded after the
// caller's own check still aborts the replace.
func (r *GormCallListRepository) ReplaceQuestions(callListID uint64, questions []models.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Answer{}).
			Joins("JOIN call_logs ON call_logs.id = answers.call_log_id").
			Where("call_logs.call_list_id = ?", callListID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAnsweredSchema
		}

		if err := tx.Where("call_list_id = ?", callListID).Delete(&models.Question{}).Error; err != nil {
			return err
		}

		for i := range questions {
			questions[i].CallListID = callListID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// AnswerCount counts answers referencing the list's schema
func (r *GormCallListRepository) AnswerCount(callListID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Answer{}).
		Joins("JOIN call_logs ON call_logs.id = answers.call_log_id").
		Where("call_logs.call_list_id = ?", callListID).
		Count(&count).Error
	return count, err
}

// LogCount counts call logs recorded against the list
func (r *GormCallListRepository) LogCount(callListID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.CallLog{}).
		Where("call_list_id = ?", callListID).
		Count(&count).Error
	return count, err
}

// AddItems enqueues items for the given student ids. The unique
// (call_list_id, student_id) index plus ON CONFLICT DO NOTHING makes the call
// idempotent: ids already on the list are skipped, and RowsAffected reports
// how many rows were actually inserted. Inserts run in bounded batches.
func (r *GormCallListRepository) AddItems(callListID uint64, studentIDs []uint64) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}

	items := make([]models.CallListItem, len(studentIDs))
	for i, studentID := range studentIDs {
		items[i] = models.CallListItem{
			CallListID: callListID,
			StudentID:  studentID,
			State:      models.ItemQueued,
		}
	}

	result := r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "call_list_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		CreateInBatches(&items, constants.BulkInsertBatchSize)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// ItemStateCounts returns per-state item counts for progress display
func (r *GormCallListRepository) ItemStateCounts(callListID uint64) (map[models.ItemState]int64, error) {
	type stateCount struct {
		State models.ItemState
		Count int64
	}

	var rows []stateCount
	err := r.db.Model(&models.CallListItem{}).
		Select("state, COUNT(*) as count").
		Where("call_list_id = ?", callListID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ItemState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

// Delete removes a call list. Hard deletion cascades to questions and items;
// soft deletion hides the list but keeps items and logs for history.
func (r *GormCallListRepository) Delete(list *models.CallList, hard bool) error {
	if !hard {
		return r.db.Delete(list).Error
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("call_list_id = ?", list.ID).Delete(&models.CallListItem{}).Error; err != nil {
			return err
		}

		if err := tx.Where("call_list_id = ?", list.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(list).Error
	})
}
