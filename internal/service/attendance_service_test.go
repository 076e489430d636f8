package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/davomat-api/internal/events"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
)

var ledgerDate = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

func statusOf(t *testing.T, entries []models.RosterEntry, studentID uint) *models.AttendanceStatus {
	t.Helper()
	for _, entry := range entries {
		if entry.Student.ID == studentID {
			return entry.Status
		}
	}
	t.Fatalf("student %d missing from roster", studentID)
	return nil
}

func TestAttendanceLedgerLifecycle(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur", "Dilnoza")
	ctx := context.Background()
	s1, s2, s3 := fx.students[0].ID, fx.students[1].ID, fx.students[2].ID

	day, created, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	require.True(t, created)
	require.False(t, day.IsFinalized)
	assert.Equal(t, fx.admin.ID, day.MarkedBy)

	summary, err := fx.service.Summarize(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceSummary{Total: 3, NotMarked: 3}, summary)

	_, err = fx.service.SetStatus(ctx, day.ID, s1, models.AttendanceStatusPresent)
	require.NoError(t, err)
	_, err = fx.service.SetStatus(ctx, day.ID, s2, models.AttendanceStatusLate)
	require.NoError(t, err)

	summary, err = fx.service.Summarize(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceSummary{Total: 3, Present: 1, Late: 1, NotMarked: 1}, summary)

	_, err = fx.service.Finalize(ctx, day.ID)
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 1, incomplete.Unmarked)
	assert.Equal(t, 2, incomplete.Marked)
	assert.Equal(t, 3, incomplete.Total)

	stored, err := fx.service.GetDay(ctx, day.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsFinalized)

	_, err = fx.service.SetStatus(ctx, day.ID, s3, models.AttendanceStatusAbsent)
	require.NoError(t, err)

	finalized, err := fx.service.Finalize(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized)

	_, err = fx.service.SetStatus(ctx, day.ID, s1, models.AttendanceStatusLate)
	require.ErrorIs(t, err, ErrRecordLocked)

	entries, err := fx.service.ListEntries(ctx, day.ID)
	require.NoError(t, err)
	require.NotNil(t, statusOf(t, entries, s1))
	assert.Equal(t, models.AttendanceStatusPresent, *statusOf(t, entries, s1))

	reopened, err := fx.service.Reopen(ctx, day.ID)
	require.NoError(t, err)
	assert.False(t, reopened.IsFinalized)

	entry, err := fx.service.SetStatus(ctx, day.ID, s1, models.AttendanceStatusLate)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, entry.Status)

	assert.Equal(t, []string{events.TypeAttendanceFinalized, events.TypeAttendanceReopened}, fx.publisher.types())
}

func TestGetOrCreateDayIsIdempotent(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()

	first, created, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate.Add(15*time.Hour), fx.admin.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	other, created, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate.AddDate(0, 0, 1), fx.admin.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestGetOrCreateDayConcurrentCallsCreateOnce(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[uint]struct{})
	createdCount := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			day, created, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[day.ID] = struct{}{}
			if created {
				createdCount++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, createdCount)

	var count int64
	require.NoError(t, fx.db.Model(&models.AttendanceDay{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateDayDefaultsToToday(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	svc := fx.service.(*attendanceService)
	tashkent := time.FixedZone("UTC+5", 5*60*60)
	svc.location = tashkent
	svc.now = func() time.Time { return time.Date(2024, time.May, 1, 21, 30, 0, 0, time.UTC) }

	day, created, err := fx.service.GetOrCreateDay(context.Background(), fx.class.ID, time.Time{}, fx.admin.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2024-05-02", day.Day().Format(time.DateOnly))
}

func TestGetOrCreateDayUnknownClass(t *testing.T) {
	fx := newLedgerFixture(t)

	_, _, err := fx.service.GetOrCreateDay(context.Background(), fx.class.ID+100, ledgerDate, fx.admin.ID)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestSetStatusLastWriteWins(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	for _, status := range models.AttendanceStatuses {
		entry, err := fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, entry.Status)

		entries, err := fx.service.ListEntries(ctx, day.ID)
		require.NoError(t, err)
		require.NotNil(t, statusOf(t, entries, fx.students[0].ID))
		assert.Equal(t, status, *statusOf(t, entries, fx.students[0].ID))
		assert.Nil(t, statusOf(t, entries, fx.students[1].ID))
	}

	var count int64
	require.NoError(t, fx.db.Model(&models.AttendanceEntry{}).Where("attendance_day_id = ?", day.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := fx.service.GetDay(ctx, day.ID)
	require.NoError(t, err)
	assert.False(t, stored.UpdatedAt.Before(day.UpdatedAt))
}

func TestSetStatusRejections(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	_, err = fx.service.SetStatus(ctx, day.ID+999, fx.students[0].ID, models.AttendanceStatusPresent)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatus(7))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatus(0))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	otherClass, others := seedClass(t, fx.db, "11-B", "Stranger")
	require.NotZero(t, otherClass.ID)
	_, err = fx.service.SetStatus(ctx, day.ID, others[0].ID, models.AttendanceStatusPresent)
	assert.ErrorIs(t, err, ErrStudentNotEnrolled)

	entries, err := fx.service.ListEntries(ctx, day.ID)
	require.NoError(t, err)
	assert.Nil(t, statusOf(t, entries, fx.students[0].ID))
}

func TestSetStatusOnFinalizedDayChecksLockBeforeStatus(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatusPresent)
	require.NoError(t, err)
	_, err = fx.service.Finalize(ctx, day.ID)
	require.NoError(t, err)

	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatus(42))
	assert.ErrorIs(t, err, ErrRecordLocked)
}

func TestFinalizeTwiceFails(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatusAbsent)
	require.NoError(t, err)

	_, err = fx.service.Finalize(ctx, day.ID)
	require.NoError(t, err)

	_, err = fx.service.Finalize(ctx, day.ID)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = fx.service.Finalize(ctx, day.ID+50)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestFinalizeEmptyClassSucceeds(t *testing.T) {
	fx := newLedgerFixture(t)
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	finalized, err := fx.service.Finalize(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized)
}

func TestFinalizeUsesRosterAtCallTime(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatusPresent)
	require.NoError(t, err)

	newcomer := models.Student{ClassID: fx.class.ID, FullName: "Newcomer", IsActive: true}
	require.NoError(t, repository.NewStudentRepository(fx.db).Create(ctx, &newcomer))
	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[1].ID, models.AttendanceStatusPresent)
	require.NoError(t, err)

	_, err = fx.service.Finalize(ctx, day.ID)
	var incomplete *IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 1, incomplete.Unmarked)
}

func TestSummarizeIgnoresRemovedStudents(t *testing.T) {
	fx := newLedgerFixture(t, "Ali", "Bobur", "Dilnoza")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	for _, student := range fx.students {
		_, err := fx.service.SetStatus(ctx, day.ID, student.ID, models.AttendanceStatusPresent)
		require.NoError(t, err)
	}

	removed := fx.students[2]
	require.NoError(t, repository.NewStudentRepository(fx.db).Deactivate(ctx, &removed))

	summary, err := fx.service.Summarize(ctx, day.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 0, summary.NotMarked)

	entries, err := fx.service.ListEntries(ctx, day.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = fx.service.Finalize(ctx, day.ID)
	require.NoError(t, err)
}

func TestListEntriesOrdersByName(t *testing.T) {
	fx := newLedgerFixture(t, "Zafar", "Aziz", "Malika")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	entries, err := fx.service.ListEntries(ctx, day.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Aziz", entries[0].Student.FullName)
	assert.Equal(t, "Malika", entries[1].Student.FullName)
	assert.Equal(t, "Zafar", entries[2].Student.FullName)
	for _, entry := range entries {
		assert.False(t, entry.Marked())
	}

	_, err = fx.service.ListEntries(ctx, day.ID+10)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReopenAlwaysClearsFinalized(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	reopened, err := fx.service.Reopen(ctx, day.ID)
	require.NoError(t, err)
	assert.False(t, reopened.IsFinalized)
	assert.Empty(t, fx.publisher.types())

	_, err = fx.service.Reopen(ctx, day.ID+10)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPublishFailureDoesNotFailFinalize(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	fx.publisher.err = errors.New("nats down")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)
	_, err = fx.service.SetStatus(ctx, day.ID, fx.students[0].ID, models.AttendanceStatusLate)
	require.NoError(t, err)

	finalized, err := fx.service.Finalize(ctx, day.ID)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized)
	assert.Equal(t, []string{events.TypeAttendanceFinalized}, fx.publisher.types())
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	fx := newLedgerFixture(t, "Ali")
	ctx := context.Background()
	day, _, err := fx.service.GetOrCreateDay(ctx, fx.class.ID, ledgerDate, fx.admin.ID)
	require.NoError(t, err)

	require.NoError(t, fx.db.Migrator().DropTable(&models.AttendanceEntry{}))

	_, err = fx.service.Summarize(ctx, day.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestLedgerErrorPassesKnownErrors(t *testing.T) {
	assert.Nil(t, ledgerError(nil))
	assert.ErrorIs(t, ledgerError(ErrRecordLocked), ErrRecordLocked)
	assert.ErrorIs(t, ledgerError(&IncompleteError{Unmarked: 2}), ErrIncomplete)

	wrapped := ledgerError(errors.New("disk full"))
	assert.ErrorIs(t, wrapped, ErrStorageUnavailable)
	assert.Contains(t, wrapped.Error(), "disk full")
}
