package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/davomat-api/internal/models"
)

// AttendanceRepository persists attendance days and their per-student entries.
type AttendanceRepository interface {
	// WithTx runs fn inside a single transaction using a repository bound to it.
	WithTx(ctx context.Context, fn func(repo AttendanceRepository) error) error
	FindDay(ctx context.Context, classID uint, date datatypes.Date) (models.AttendanceDay, error)
	GetDay(ctx context.Context, id uint) (models.AttendanceDay, error)
	// GetDayForUpdate loads the day and holds a row lock until the transaction ends
	// on dialects that support it.
	GetDayForUpdate(ctx context.Context, id uint) (models.AttendanceDay, error)
	// CreateDayIfAbsent inserts the day unless (class_id, date) already exists and
	// reports whether a row was written.
	CreateDayIfAbsent(ctx context.Context, day *models.AttendanceDay) (bool, error)
	ListEntries(ctx context.Context, dayID uint) ([]models.AttendanceEntry, error)
	GetEntry(ctx context.Context, dayID, studentID uint) (models.AttendanceEntry, error)
	UpsertEntry(ctx context.Context, entry *models.AttendanceEntry) error
	TouchDay(ctx context.Context, id uint, at time.Time) error
	SetFinalized(ctx context.Context, id uint, finalized bool, at time.Time) error
	CountEnrolled(ctx context.Context, classID uint) (int, error)
	IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error)
	// CountMarkedByStatus counts entries of the day that belong to students who are
	// currently active members of classID.
	CountMarkedByStatus(ctx context.Context, dayID, classID uint) (map[models.AttendanceStatus]int, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates the repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) WithTx(ctx context.Context, fn func(repo AttendanceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&attendanceRepository{db: tx})
	})
}

func (r *attendanceRepository) FindDay(ctx context.Context, classID uint, date datatypes.Date) (models.AttendanceDay, error) {
	var day models.AttendanceDay
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND date = ?", classID, date).
		First(&day).Error; err != nil {
		return models.AttendanceDay{}, err
	}

	return day, nil
}

func (r *attendanceRepository) GetDay(ctx context.Context, id uint) (models.AttendanceDay, error) {
	var day models.AttendanceDay
	if err := r.db.WithContext(ctx).First(&day, id).Error; err != nil {
		return models.AttendanceDay{}, err
	}

	return day, nil
}

func (r *attendanceRepository) GetDayForUpdate(ctx context.Context, id uint) (models.AttendanceDay, error) {
	var day models.AttendanceDay
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&day, id).Error; err != nil {
		return models.AttendanceDay{}, err
	}

	return day, nil
}

func (r *attendanceRepository) CreateDayIfAbsent(ctx context.Context, day *models.AttendanceDay) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(day)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *attendanceRepository) ListEntries(ctx context.Context, dayID uint) ([]models.AttendanceEntry, error) {
	var entries []models.AttendanceEntry
	if err := r.db.WithContext(ctx).
		Where("attendance_day_id = ?", dayID).
		Order("student_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *attendanceRepository) GetEntry(ctx context.Context, dayID, studentID uint) (models.AttendanceEntry, error) {
	var entry models.AttendanceEntry
	if err := r.db.WithContext(ctx).
		Where("attendance_day_id = ? AND student_id = ?", dayID, studentID).
		First(&entry).Error; err != nil {
		return models.AttendanceEntry{}, err
	}

	return entry, nil
}

func (r *attendanceRepository) UpsertEntry(ctx context.Context, entry *models.AttendanceEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attendance_day_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Omit(clause.Associations).
		Create(entry).Error
}

func (r *attendanceRepository) TouchDay(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AttendanceDay{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}

func (r *attendanceRepository) SetFinalized(ctx context.Context, id uint, finalized bool, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AttendanceDay{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"is_finalized": finalized,
			"updated_at":   at,
		}).Error
}

func (r *attendanceRepository) CountEnrolled(ctx context.Context, classID uint) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("class_id = ? AND is_active = ?", classID, true).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return int(total), nil
}

func (r *attendanceRepository) IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND class_id = ? AND is_active = ?", studentID, classID, true).
		Count(&total).Error; err != nil {
		return false, err
	}

	return total > 0, nil
}

func (r *attendanceRepository) CountMarkedByStatus(ctx context.Context, dayID, classID uint) (map[models.AttendanceStatus]int, error) {
	var rows []struct {
		Status models.AttendanceStatus
		Total  int
	}

	if err := r.db.WithContext(ctx).
		Table("attendance_entries").
		Select("attendance_entries.status AS status, COUNT(*) AS total").
		Joins("JOIN students ON students.id = attendance_entries.student_id").
		Where("attendance_entries.attendance_day_id = ?", dayID).
		Where("students.class_id = ? AND students.is_active = ?", classID, true).
		Group("attendance_entries.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}
