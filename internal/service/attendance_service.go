package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/events"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/observability"
	"github.com/noah-isme/davomat-api/internal/repository"
)

var (
	// ErrRecordNotFound indicates the referenced attendance day does not exist.
	ErrRecordNotFound = errors.New("attendance record not found")
	// ErrRecordLocked indicates a mutation was attempted on a finalized day.
	ErrRecordLocked = errors.New("attendance record is finalized")
	// ErrInvalidStatus indicates a status outside present, late and absent.
	ErrInvalidStatus = errors.New("invalid attendance status")
	// ErrAlreadyFinalized indicates finalize was called on a finalized day.
	ErrAlreadyFinalized = errors.New("attendance record already finalized")
	// ErrIncomplete indicates finalize was called before every student was marked.
	ErrIncomplete = errors.New("attendance record incomplete")
	// ErrStudentNotEnrolled indicates the student is not an active member of the day's class.
	ErrStudentNotEnrolled = errors.New("student is not enrolled in this class")
	// ErrStorageUnavailable wraps unexpected storage failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IncompleteError carries the completeness numbers of a rejected finalize.
type IncompleteError struct {
	Unmarked int
	Marked   int
	Total    int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("attendance incomplete: %d of %d students not marked", e.Unmarked, e.Total)
}

// Is lets errors.Is match ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// AttendanceService owns the per-class, per-day attendance ledger.
type AttendanceService interface {
	// GetOrCreateDay returns the day for (classID, date), creating it on first
	// access. A zero date means today. created is true only for the call that
	// inserted the row.
	GetOrCreateDay(ctx context.Context, classID uint, date time.Time, actorID uint) (day models.AttendanceDay, created bool, err error)
	GetDay(ctx context.Context, dayID uint) (models.AttendanceDay, error)
	FindDay(ctx context.Context, classID uint, date time.Time) (models.AttendanceDay, error)
	ListEntries(ctx context.Context, dayID uint) ([]models.RosterEntry, error)
	SetStatus(ctx context.Context, dayID, studentID uint, status models.AttendanceStatus) (models.AttendanceEntry, error)
	Summarize(ctx context.Context, dayID uint) (models.AttendanceSummary, error)
	Finalize(ctx context.Context, dayID uint) (models.AttendanceDay, error)
	Reopen(ctx context.Context, dayID uint) (models.AttendanceDay, error)
	Today() time.Time
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	classes    repository.ClassRepository
	roster     RosterProvider
	publisher  events.Publisher
	location   *time.Location
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAttendanceService constructs the attendance ledger. location decides which
// calendar date "today" is.
func NewAttendanceService(attendanceRepo repository.AttendanceRepository, classRepo repository.ClassRepository, roster RosterProvider, publisher events.Publisher, location *time.Location, logger zerolog.Logger) AttendanceService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if location == nil {
		location = time.UTC
	}

	return &attendanceService{
		attendance: attendanceRepo,
		classes:    classRepo,
		roster:     roster,
		publisher:  publisher,
		location:   location,
		logger:     logger.With().Str("component", "attendance_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/davomat-api/internal/service/attendance"),
		now:        time.Now,
	}
}

func (s *attendanceService) Today() time.Time {
	y, m, d := s.now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *attendanceService) GetOrCreateDay(ctx context.Context, classID uint, date time.Time, actorID uint) (models.AttendanceDay, bool, error) {
	if date.IsZero() {
		date = s.Today()
	}
	calendarDate := models.CalendarDate(date)

	ctx, span := s.tracer.Start(ctx, "attendance.get_or_create_day", trace.WithAttributes(
		attribute.Int64("attendance.class_id", int64(classID)),
		attribute.String("attendance.date", date.Format(time.DateOnly)),
	))
	defer span.End()

	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AttendanceDay{}, false, ErrClassNotFound
		}
		return models.AttendanceDay{}, false, s.fail(span, err)
	}

	day, err := s.attendance.FindDay(ctx, classID, calendarDate)
	if err == nil {
		return day, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AttendanceDay{}, false, s.fail(span, err)
	}

	day = models.AttendanceDay{
		ClassID:   classID,
		Date:      calendarDate,
		MarkedBy:  actorID,
		UpdatedAt: s.now().UTC(),
	}
	created, err := s.attendance.CreateDayIfAbsent(ctx, &day)
	if err != nil {
		return models.AttendanceDay{}, false, s.fail(span, err)
	}
	if created {
		observability.AttendanceDaysCreated().Inc()
		s.logger.Info().Uint("attendance_day_id", day.ID).Uint("class_id", classID).Str("date", date.Format(time.DateOnly)).Msg("attendance day created")
		return day, true, nil
	}

	// Lost the insert race: the winner's row is authoritative.
	day, err = s.attendance.FindDay(ctx, classID, calendarDate)
	if err != nil {
		return models.AttendanceDay{}, false, s.fail(span, err)
	}

	return day, false, nil
}

func (s *attendanceService) GetDay(ctx context.Context, dayID uint) (models.AttendanceDay, error) {
	day, err := s.attendance.GetDay(ctx, dayID)
	if err != nil {
		return models.AttendanceDay{}, ledgerError(err)
	}

	return day, nil
}

func (s *attendanceService) FindDay(ctx context.Context, classID uint, date time.Time) (models.AttendanceDay, error) {
	if date.IsZero() {
		date = s.Today()
	}

	day, err := s.attendance.FindDay(ctx, classID, models.CalendarDate(date))
	if err != nil {
		return models.AttendanceDay{}, ledgerError(err)
	}

	return day, nil
}

func (s *attendanceService) ListEntries(ctx context.Context, dayID uint) ([]models.RosterEntry, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.list_entries", trace.WithAttributes(
		attribute.Int64("attendance.day_id", int64(dayID)),
	))
	defer span.End()

	day, err := s.attendance.GetDay(ctx, dayID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	students, err := s.roster.ListEnrolled(ctx, day.ClassID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	entries, err := s.attendance.ListEntries(ctx, dayID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	byStudent := make(map[uint]models.AttendanceEntry, len(entries))
	for _, entry := range entries {
		byStudent[entry.StudentID] = entry
	}

	result := make([]models.RosterEntry, 0, len(students))
	for _, student := range students {
		item := models.RosterEntry{Student: student}
		if entry, ok := byStudent[student.ID]; ok {
			status := entry.Status
			updatedAt := entry.UpdatedAt
			item.Status = &status
			item.UpdatedAt = &updatedAt
		}
		result = append(result, item)
	}

	return result, nil
}

func (s *attendanceService) SetStatus(ctx context.Context, dayID, studentID uint, status models.AttendanceStatus) (models.AttendanceEntry, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.set_status", trace.WithAttributes(
		attribute.Int64("attendance.day_id", int64(dayID)),
		attribute.Int64("attendance.student_id", int64(studentID)),
		attribute.Int("attendance.status", int(status)),
	))
	defer span.End()

	var entry models.AttendanceEntry
	err := s.attendance.WithTx(ctx, func(tx repository.AttendanceRepository) error {
		day, err := tx.GetDayForUpdate(ctx, dayID)
		if err != nil {
			return err
		}
		if day.IsFinalized {
			return ErrRecordLocked
		}
		if !status.Valid() {
			return ErrInvalidStatus
		}

		enrolled, err := tx.IsEnrolled(ctx, day.ClassID, studentID)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrStudentNotEnrolled
		}

		now := s.now().UTC()
		entry = models.AttendanceEntry{
			AttendanceDayID: dayID,
			StudentID:       studentID,
			Status:          status,
			UpdatedAt:       now,
		}
		if err := tx.UpsertEntry(ctx, &entry); err != nil {
			return err
		}
		if err := tx.TouchDay(ctx, dayID, now); err != nil {
			return err
		}

		stored, err := tx.GetEntry(ctx, dayID, studentID)
		if err != nil {
			return err
		}
		entry = stored
		return nil
	})
	if err != nil {
		return models.AttendanceEntry{}, s.fail(span, err)
	}

	observability.AttendanceMarks().WithLabelValues(status.String()).Inc()

	return entry, nil
}

func (s *attendanceService) Summarize(ctx context.Context, dayID uint) (models.AttendanceSummary, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.summarize", trace.WithAttributes(
		attribute.Int64("attendance.day_id", int64(dayID)),
	))
	defer span.End()

	day, err := s.attendance.GetDay(ctx, dayID)
	if err != nil {
		return models.AttendanceSummary{}, s.fail(span, err)
	}

	total, err := s.roster.EnrolledCount(ctx, day.ClassID)
	if err != nil {
		return models.AttendanceSummary{}, s.fail(span, err)
	}

	counts, err := s.attendance.CountMarkedByStatus(ctx, dayID, day.ClassID)
	if err != nil {
		return models.AttendanceSummary{}, s.fail(span, err)
	}

	summary := models.AttendanceSummary{
		Total:     total,
		Present:   counts[models.AttendanceStatusPresent],
		Late:      counts[models.AttendanceStatusLate],
		Absent:    counts[models.AttendanceStatusAbsent],
		Finalized: day.IsFinalized,
	}
	summary.NotMarked = summary.Total - summary.Marked()

	return summary, nil
}

func (s *attendanceService) Finalize(ctx context.Context, dayID uint) (models.AttendanceDay, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.finalize", trace.WithAttributes(
		attribute.Int64("attendance.day_id", int64(dayID)),
	))
	defer span.End()

	var day models.AttendanceDay
	var marked int
	err := s.attendance.WithTx(ctx, func(tx repository.AttendanceRepository) error {
		current, err := tx.GetDayForUpdate(ctx, dayID)
		if err != nil {
			return err
		}
		if current.IsFinalized {
			return ErrAlreadyFinalized
		}

		total, err := tx.CountEnrolled(ctx, current.ClassID)
		if err != nil {
			return err
		}
		counts, err := tx.CountMarkedByStatus(ctx, dayID, current.ClassID)
		if err != nil {
			return err
		}

		marked = 0
		for _, count := range counts {
			marked += count
		}
		if marked != total {
			return &IncompleteError{Unmarked: total - marked, Marked: marked, Total: total}
		}

		now := s.now().UTC()
		if err := tx.SetFinalized(ctx, dayID, true, now); err != nil {
			return err
		}

		current.IsFinalized = true
		current.UpdatedAt = now
		day = current
		return nil
	})
	if err != nil {
		observability.AttendanceFinalize().WithLabelValues(finalizeOutcome(err)).Inc()
		return models.AttendanceDay{}, s.fail(span, err)
	}

	observability.AttendanceFinalize().WithLabelValues("finalized").Inc()
	s.logger.Info().Uint("attendance_day_id", day.ID).Uint("class_id", day.ClassID).Int("marked", marked).Msg("attendance day finalized")
	s.publish(ctx, events.TypeAttendanceFinalized, day)

	return day, nil
}

func (s *attendanceService) Reopen(ctx context.Context, dayID uint) (models.AttendanceDay, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.reopen", trace.WithAttributes(
		attribute.Int64("attendance.day_id", int64(dayID)),
	))
	defer span.End()

	var day models.AttendanceDay
	var wasFinalized bool
	err := s.attendance.WithTx(ctx, func(tx repository.AttendanceRepository) error {
		current, err := tx.GetDayForUpdate(ctx, dayID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if err := tx.SetFinalized(ctx, dayID, false, now); err != nil {
			return err
		}

		wasFinalized = current.IsFinalized
		current.IsFinalized = false
		current.UpdatedAt = now
		day = current
		return nil
	})
	if err != nil {
		return models.AttendanceDay{}, s.fail(span, err)
	}

	if wasFinalized {
		observability.AttendanceReopen().Inc()
		s.logger.Info().Uint("attendance_day_id", day.ID).Uint("class_id", day.ClassID).Msg("attendance day reopened")
		s.publish(ctx, events.TypeAttendanceReopened, day)
	}

	return day, nil
}

func (s *attendanceService) publish(ctx context.Context, eventType string, day models.AttendanceDay) {
	event := events.NewEvent(eventType, map[string]interface{}{
		"attendance_day_id": day.ID,
		"class_id":          day.ClassID,
		"date":              day.Day().Format(time.DateOnly),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Uint("attendance_day_id", day.ID).Msg("failed to publish attendance event")
	}
}

// fail translates err into the ledger taxonomy and records unexpected failures on the span.
func (s *attendanceService) fail(span trace.Span, err error) error {
	translated := ledgerError(err)
	if errors.Is(translated, ErrStorageUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).Msg("attendance storage failure")
	}
	return translated
}

func ledgerError(err error) error {
	var incomplete *IncompleteError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.As(err, &incomplete),
		errors.Is(err, ErrRecordNotFound),
		errors.Is(err, ErrRecordLocked),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrAlreadyFinalized),
		errors.Is(err, ErrStudentNotEnrolled),
		errors.Is(err, ErrClassNotFound),
		errors.Is(err, ErrStorageUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
}

func finalizeOutcome(err error) string {
	switch {
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	case errors.Is(err, ErrAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrRecordNotFound):
		return "not_found"
	default:
		return "error"
	}
}
