package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/models"
)

// Connect opens the database selected by driver.
func Connect(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return ConnectPostgres(dsn)
	case "sqlite":
		return ConnectSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates the schema of every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassStaff{},
		&models.Student{},
		&models.Transfer{},
		&models.AttendanceDay{},
		&models.AttendanceEntry{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}
