package repository

import (
	"errors"
	"time"

	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/gorm"
)

// ErrStaleItem is returned by CompleteTx when the item stopped being CALLING
// under the given caller between the service's read and the transaction.
var ErrStaleItem = errors.New("call item repository: item state changed concurrently")

// GormCallItemRepository is a GORM implementation of CallItemRepository
type GormCallItemRepository struct {
	db *gorm.DB
}

// NewCallItemRepository creates a new CallItemRepository
func NewCallItemRepository(db *gorm.DB) CallItemRepository {
	return &GormCallItemRepository{db: db}
}

// FindByID finds an item scoped to its call list
func (r *GormCallItemRepository) FindByID(callListID, itemID uint64, preload ...string) (*models.CallListItem, error) {
	var item models.CallListItem
	query := r.db.Where("call_list_id = ?", callListID)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&item, itemID).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

// List retrieves items with filtering and pagination
func (r *GormCallItemRepository) List(filter ItemFilter) ([]models.CallListItem, int64, error) {
	var items []models.CallListItem

	query := r.db.Model(&models.CallListItem{}).Where("call_list_id = ?", filter.CallListID)

	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("call_list_items.created_at ASC, call_list_items.id ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Student").Preload("Assignee").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// FirstQueued returns the oldest QUEUED item on the list
func (r *GormCallItemRepository) FirstQueued(callListID uint64) (*models.CallListItem, error) {
	var item models.CallListItem
	err := r.db.
		Where("call_list_id = ? AND state = ?", callListID, models.ItemQueued).
		Order("created_at ASC, id ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Claim performs the QUEUED→CALLING compare-and-swap. The state condition in
// the WHERE clause is what guarantees a single winner under concurrent claims.
func (r *GormCallItemRepository) Claim(itemID, callerID uint64, now time.Time) (bool, error) {
	result := r.db.Model(&models.CallListItem{}).
		Where("id = ? AND state = ?", itemID, models.ItemQueued).
		Updates(map[string]interface{}{
			"state":       models.ItemCalling,
			"assignee_id": callerID,
			"claimed_at":  now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release performs the CALLING→QUEUED compare-and-swap. When assigneeID is
// non-nil the update also conditions on the current assignee, so a caller
// cannot release an item that was force-released and reclaimed meanwhile.
func (r *GormCallItemRepository) Release(itemID uint64, assigneeID *uint64, now time.Time) (bool, error) {
	query := r.db.Model(&models.CallListItem{}).
		Where("id = ? AND state = ?", itemID, models.ItemCalling)
	if assigneeID != nil {
		query = query.Where("assignee_id = ?", *assigneeID)
	}

	result := query.Updates(map[string]interface{}{
		"state":       models.ItemQueued,
		"assignee_id": nil,
		"claimed_at":  nil,
		"updated_at":  now,
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CompleteTx drives the terminal transition, writes the call log with its
// answers, and creates the optional followup, all in one transaction. A crash
// or a lost condition leaves no partial state behind.
func (r *GormCallItemRepository) CompleteTx(itemID, callerID uint64, terminal models.ItemState, log *models.CallLog, followup *models.Followup, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CallListItem{}).
			Where("id = ? AND state = ? AND assignee_id = ?", itemID, models.ItemCalling, callerID).
			Updates(map[string]interface{}{
				"state":        terminal,
				"completed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleItem
		}

		if err := tx.Create(log).Error; err != nil {
			return err
		}

		if followup != nil {
			followup.CallLogID = log.ID
			if err := tx.Create(followup).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
