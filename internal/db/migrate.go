package db

import (
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
