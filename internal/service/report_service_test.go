package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/report"
	"github.com/noah-isme/davomat-api/internal/repository"
)

func newRedisForTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestReportServiceDaily(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur")
	ctx := context.Background()
	svc := NewReportService(fx.service, repository.NewClassRepository(fx.db), repository.NewStudentRepository(fx.db), nil, zerolog.Nop())

	_, err := svc.Daily(ctx, fx.class.ID, ledgerDate)
	assert.ErrorIs(t, err, ErrNoAttendanceRecord)

	_, err = svc.Daily(ctx, fx.class.ID+10, ledgerDate)
	assert.ErrorIs(t, err, ErrClassNotFound)

	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatusPresent)
	require.NoError(t, err)

	daily, err := svc.Daily(ctx, fx.class.ID, ledgerDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", daily.Date)
	assert.Equal(t, 2, daily.Summary.Total)
	assert.Equal(t, 1, daily.Summary.Present)
	assert.Equal(t, 1, daily.Summary.NotMarked)
	assert.Contains(t, daily.Text, "Chorshanba, 01.05.2024")
	assert.Contains(t, daily.Text, "Sinf: 10-A")
}

func TestReportServiceClassReportIsCached(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur")
	ctx := context.Background()
	mr, client := newRedisForTest(t)
	cache := NewRedisClassReportCache(client, time.Minute, zerolog.Nop())
	svc := NewReportService(fx.service, repository.NewClassRepository(fx.db), repository.NewStudentRepository(fx.db), cache, zerolog.Nop())

	first, err := svc.Class(ctx, fx.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalStudents)
	assert.Equal(t, 2, first.ActiveStudents)
	assert.Empty(t, first.StaffNames)
	assert.True(t, mr.Exists(classReportKey(fx.class.ID)))

	require.NoError(t, fx.db.Model(&models.Student{}).Where("id = ?", fx.students[0].ID).Update("is_active", false).Error)

	cached, err := svc.Class(ctx, fx.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.ActiveStudents)

	cache.Invalidate(ctx, fx.class.ID)
	assert.False(t, mr.Exists(classReportKey(fx.class.ID)))

	fresh, err := svc.Class(ctx, fx.class.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.ActiveStudents)
	assert.Contains(t, fresh.Text, "Nofaol: 1")

	_, err = svc.Class(ctx, fx.class.ID+10)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestRedisClassReportCacheToleratesOutage(t *testing.T) {
	mr, client := newRedisForTest(t)
	cache := NewRedisClassReportCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	cache.Set(ctx, 1, dto.ClassReportResponse{ClassID: 1, ClassName: "1-A"})
	got, ok := cache.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "1-A", got.ClassName)

	mr.Close()
	_, ok = cache.Get(ctx, 1)
	assert.False(t, ok)
	cache.Invalidate(ctx, 1)

	assert.IsType(t, NopClassReportCache{}, NewRedisClassReportCache(nil, 0, zerolog.Nop()))
}

func TestReportServiceExports(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur")
	ctx := context.Background()
	svc := NewReportService(fx.service, repository.NewClassRepository(fx.db), repository.NewStudentRepository(fx.db), nil, zerolog.Nop())

	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[1].ID, models.AttendanceStatusAbsent)
	require.NoError(t, err)

	export, err := svc.ExportDay(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ContentTypeXLSX, export.ContentType)
	assert.Equal(t, "davomat_10-A_2024-05-01.xlsx", export.Filename)

	f, err := excelize.OpenReader(export.Body)
	require.NoError(t, err)
	defer f.Close()
	status, err := f.GetCellValue("Davomat", "C4")
	require.NoError(t, err)
	assert.Equal(t, "Kelmadi", status)

	_, err = svc.ExportDay(ctx, day.ID+10)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	roster, err := svc.ExportRoster(ctx, fx.class.ID)
	require.NoError(t, err)
	assert.Equal(t, "oquvchilar_10-A.xlsx", roster.Filename)
	assert.NotZero(t, roster.Body.Len())
}
