package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/report"
	"github.com/noah-isme/davomat-api/internal/repository"
)

// ErrNoAttendanceRecord indicates no attendance day exists for the requested date.
var ErrNoAttendanceRecord = errors.New("no attendance recorded for this date")

// Export is a generated workbook ready to be streamed.
type Export struct {
	Filename    string
	ContentType string
	Body        *bytes.Buffer
}

// ReportService renders read-only reports over the ledger and rosters.
type ReportService interface {
	Daily(ctx context.Context, classID uint, date time.Time) (dto.DailyReportResponse, error)
	Class(ctx context.Context, classID uint) (dto.ClassReportResponse, error)
	ExportDay(ctx context.Context, dayID uint) (Export, error)
	ExportRoster(ctx context.Context, classID uint) (Export, error)
}

type reportService struct {
	attendance AttendanceService
	classes    repository.ClassRepository
	students   repository.StudentRepository
	cache      ClassReportCache
	logger     zerolog.Logger
	now        func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(attendance AttendanceService, classes repository.ClassRepository, students repository.StudentRepository, cache ClassReportCache, logger zerolog.Logger) ReportService {
	if cache == nil {
		cache = NopClassReportCache{}
	}

	return &reportService{
		attendance: attendance,
		classes:    classes,
		students:   students,
		cache:      cache,
		logger:     logger.With().Str("component", "report_service").Logger(),
		now:        time.Now,
	}
}

func (s *reportService) Daily(ctx context.Context, classID uint, date time.Time) (dto.DailyReportResponse, error) {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return dto.DailyReportResponse{}, err
	}
	if date.IsZero() {
		date = s.attendance.Today()
	}

	day, err := s.attendance.FindDay(ctx, classID, date)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return dto.DailyReportResponse{}, ErrNoAttendanceRecord
		}
		return dto.DailyReportResponse{}, err
	}

	summary, err := s.attendance.Summarize(ctx, day.ID)
	if err != nil {
		return dto.DailyReportResponse{}, err
	}

	return dto.DailyReportResponse{
		ClassID:   class.ID,
		ClassName: class.Name,
		Date:      day.Day().Format(time.DateOnly),
		Summary:   dto.NewAttendanceSummaryResponse(summary),
		Text:      report.DailySummary(class.Name, day.Day(), summary),
	}, nil
}

func (s *reportService) Class(ctx context.Context, classID uint) (dto.ClassReportResponse, error) {
	if cached, ok := s.cache.Get(ctx, classID); ok {
		return cached, nil
	}

	class, err := s.findClass(ctx, classID)
	if err != nil {
		return dto.ClassReportResponse{}, err
	}

	total, err := s.students.CountByClass(ctx, classID, false)
	if err != nil {
		return dto.ClassReportResponse{}, err
	}
	active, err := s.students.CountByClass(ctx, classID, true)
	if err != nil {
		return dto.ClassReportResponse{}, err
	}

	assignments, err := s.classes.ListActiveStaff(ctx, classID)
	if err != nil {
		return dto.ClassReportResponse{}, err
	}
	names := make([]string, 0, len(assignments))
	for _, assignment := range assignments {
		names = append(names, assignment.StaffUser.FullName)
	}

	response := dto.ClassReportResponse{
		ClassID:        class.ID,
		ClassName:      class.Name,
		TotalStudents:  total,
		ActiveStudents: active,
		StaffNames:     names,
		Text: report.ClassSummary(report.ClassOverview{
			ClassName:      class.Name,
			TotalStudents:  total,
			ActiveStudents: active,
			StaffNames:     names,
		}),
	}

	s.cache.Set(ctx, classID, response)
	return response, nil
}

func (s *reportService) ExportDay(ctx context.Context, dayID uint) (Export, error) {
	day, err := s.attendance.GetDay(ctx, dayID)
	if err != nil {
		return Export{}, err
	}
	class, err := s.findClass(ctx, day.ClassID)
	if err != nil {
		return Export{}, err
	}

	entries, err := s.attendance.ListEntries(ctx, dayID)
	if err != nil {
		return Export{}, err
	}
	summary, err := s.attendance.Summarize(ctx, dayID)
	if err != nil {
		return Export{}, err
	}

	body, filename, err := report.AttendanceWorkbook(class.Name, day.Day(), entries, summary)
	if err != nil {
		s.logger.Error().Err(err).Uint("attendance_day_id", dayID).Msg("failed to render attendance workbook")
		return Export{}, err
	}

	return Export{Filename: filename, ContentType: report.ContentTypeXLSX, Body: body}, nil
}

func (s *reportService) ExportRoster(ctx context.Context, classID uint) (Export, error) {
	class, err := s.findClass(ctx, classID)
	if err != nil {
		return Export{}, err
	}

	students, err := s.students.ListByClass(ctx, classID, false)
	if err != nil {
		return Export{}, err
	}

	body, filename, err := report.RosterWorkbook(class.Name, students, s.now())
	if err != nil {
		s.logger.Error().Err(err).Uint("class_id", classID).Msg("failed to render roster workbook")
		return Export{}, err
	}

	return Export{Filename: filename, ContentType: report.ContentTypeXLSX, Body: body}, nil
}

func (s *reportService) findClass(ctx context.Context, classID uint) (models.Class, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}

	return class, nil
}
