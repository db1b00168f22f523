package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes beyond what AutoMigrate creates
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Queue scans and state filtering
		{"call_list_items", "idx_items_list_state", "call_list_id, state"},
		{"call_list_items", "idx_items_assignee", "assignee_id"},

		// Followup overdue queries
		{"followups", "idx_followups_status_due", "status, due_at"},
		{"followups", "idx_followups_workspace", "workspace_id"},

		// Call log lookups per list/student
		{"call_logs", "idx_call_logs_list_student", "call_list_id, student_id"},

		// Student filter resolution
		{"students", "idx_students_workspace_group", "workspace_id, group_id"},
		{"students", "idx_students_status", "status"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM information_schema.statistics
			WHERE table_name = ? AND index_name = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
