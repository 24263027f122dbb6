package scope

import "gorm.io/gorm"

// OrderByCreatedAsc lists rows in the order they were created, the order collections are shown in.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
