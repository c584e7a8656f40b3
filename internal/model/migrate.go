package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Friendship{},
		&Activity{},
		&Participation{},
		&ActivityLike{},
		&Notification{},
	); err != nil {
		return err
	}

	// Feed base predicate: published activities ordered by date.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_activities_status_date " +
			"ON activities (status, date)",
	).Error
}
