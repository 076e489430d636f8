package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/davomat-api/internal/models"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassStaff{},
		&models.Student{},
		&models.Transfer{},
		&models.AttendanceDay{},
		&models.AttendanceEntry{},
	))
	return db
}

func createClass(t *testing.T, db *gorm.DB, name string) models.Class {
	t.Helper()
	class := models.Class{Name: name}
	require.NoError(t, db.Create(&class).Error)
	return class
}

func reloadClass(t *testing.T, db *gorm.DB, id uint) models.Class {
	t.Helper()
	var class models.Class
	require.NoError(t, db.First(&class, id).Error)
	return class
}
