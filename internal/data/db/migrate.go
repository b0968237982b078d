package db

import (
	types "github.com/yungbote/fitcoach-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// origin-scoped key/value persistence
		&types.KVEntry{},

		// plan generation audit log
		&types.GenerationRun{},
	)
}
