package database

import "gorm.io/gorm"

// Paginate applies page-numbered offset pagination to a GORM query. Pages
// start at 1; a non-positive page or size leaves the query unbounded.
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 || pageSize < 1 {
			return db
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
