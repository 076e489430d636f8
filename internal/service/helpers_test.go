package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/davomat-api/internal/events"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
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

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func seedClass(t *testing.T, db *gorm.DB, name string, students ...string) (models.Class, []models.Student) {
	t.Helper()

	class := models.Class{Name: name}
	require.NoError(t, db.Create(&class).Error)

	repo := repository.NewStudentRepository(db)
	result := make([]models.Student, 0, len(students))
	for _, fullName := range students {
		student := models.Student{ClassID: class.ID, FullName: fullName, IsActive: true}
		require.NoError(t, repo.Create(context.Background(), &student))
		result = append(result, student)
	}

	return class, result
}

func seedUser(t *testing.T, db *gorm.DB, phone string, role models.Role, active bool) models.User {
	t.Helper()

	user := models.User{Phone: phone, FullName: "User " + phone, Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	if !active {
		require.NoError(t, db.Model(&user).Update("is_active", false).Error)
		user.IsActive = false
	}

	return user
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

type ledgerFixture struct {
	db        *gorm.DB
	service   AttendanceService
	publisher *recordingPublisher
	class     models.Class
	students  []models.Student
	admin     models.User
}

func newLedgerFixture(t *testing.T, studentNames ...string) ledgerFixture {
	t.Helper()

	db := setupServiceTestDB(t)
	class, students := seedClass(t, db, "10-A", studentNames...)
	admin := seedUser(t, db, "998900000001", models.RoleAdmin, true)

	studentRepo := repository.NewStudentRepository(db)
	publisher := &recordingPublisher{}
	svc := NewAttendanceService(
		repository.NewAttendanceRepository(db),
		repository.NewClassRepository(db),
		NewRosterProvider(studentRepo),
		publisher,
		time.UTC,
		zerolog.Nop(),
	)

	return ledgerFixture{
		db:        db,
		service:   svc,
		publisher: publisher,
		class:     class,
		students:  students,
		admin:     admin,
	}
}
