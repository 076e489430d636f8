package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/davomat-api/internal/events"
	"github.com/noah-isme/davomat-api/internal/handler"
	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
	"github.com/noah-isme/davomat-api/internal/service"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	tokens service.TokenIssuer
	admin  models.User
	staff  models.User
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func newTestEnv(t *testing.T) *testEnv {
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

	log := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	tokens := service.NewTokenIssuer(testSecret, time.Hour)
	attendance := service.NewAttendanceService(attendanceRepo, classRepo, service.NewRosterProvider(studentRepo), events.NopPublisher{}, time.UTC, log)
	users := service.NewUserService(userRepo, tokens, validate, log)
	classes := service.NewClassService(classRepo, studentRepo, userRepo, nil, validate, log)
	students := service.NewStudentService(studentRepo, transferRepo, classRepo, nil, nil, validate, log)
	reports := service.NewReportService(attendance, classRepo, studentRepo, nil, log)

	gate := service.NewAccessGate(userRepo)
	guard := func(action service.Action) fiber.Handler {
		return middleware.Authorize(gate, action, log)
	}
	jwt := middleware.JWTProtected(testSecret)

	app := fiber.New()
	api := app.Group("/api/v1")
	handler.NewAuthHandler(users, log).Register(api.Group("/auth"))
	handler.NewAttendanceHandler(attendance, reports, validate, log).Register(api.Group("/attendance", jwt), guard)
	handler.NewClassHandler(classes, students, reports, log).Register(api.Group("/classes", jwt), guard)
	handler.NewStudentHandler(students, log).Register(api.Group("/students", jwt), guard)
	handler.NewStaffHandler(users, log).Register(api.Group("/staff", jwt), guard)
	handler.NewReportHandler(reports, log).Register(api.Group("/reports", jwt), guard)

	env := &testEnv{app: app, db: db, tokens: tokens}
	env.admin = env.seedUser(t, "998900000001", models.RoleAdmin)
	env.staff = env.seedUser(t, "998900000002", models.RoleStaff)
	return env
}

func (e *testEnv) seedUser(t *testing.T, phone string, role models.Role) models.User {
	t.Helper()
	user := models.User{Phone: phone, FullName: "User " + phone, Role: role, IsActive: true}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) seedClass(t *testing.T, name string, students ...string) (models.Class, []models.Student) {
	t.Helper()

	class := models.Class{Name: name}
	require.NoError(t, e.db.Create(&class).Error)

	repo := repository.NewStudentRepository(e.db)
	result := make([]models.Student, 0, len(students))
	for _, fullName := range students {
		student := models.Student{ClassID: class.ID, FullName: fullName, IsActive: true}
		require.NoError(t, repo.Create(context.Background(), &student))
		result = append(result, student)
	}
	return class, result
}

func (e *testEnv) do(t *testing.T, as *models.User, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if as != nil {
		token, _, err := e.tokens.Issue(*as)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func newAuthorizedRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}
