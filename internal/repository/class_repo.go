package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/models"
)

// ClassRepository defines data operations for classes and their staff.
type ClassRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	GetByID(ctx context.Context, id uint) (models.Class, error)
	GetByName(ctx context.Context, name string) (models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	// Delete removes the class together with its staff assignments and
	// attendance history.
	Delete(ctx context.Context, id uint) error
	ListActiveStaff(ctx context.Context, classID uint) ([]models.ClassStaff, error)
	GetActiveAssignment(ctx context.Context, classID, staffUserID uint) (models.ClassStaff, error)
	AssignStaff(ctx context.Context, assignment *models.ClassStaff) error
	EndAssignment(ctx context.Context, assignmentID uint, at time.Time) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates the repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&classes).Error; err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) GetByName(ctx context.Context, name string) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&class).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		days := tx.Model(&models.AttendanceDay{}).Select("id").Where("class_id = ?", id)
		if err := tx.Where("attendance_day_id IN (?)", days).Delete(&models.AttendanceEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&models.AttendanceDay{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&models.ClassStaff{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Class{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *classRepository) ListActiveStaff(ctx context.Context, classID uint) ([]models.ClassStaff, error) {
	var assignments []models.ClassStaff
	if err := r.db.WithContext(ctx).
		Preload("StaffUser").
		Where("class_id = ? AND active_to IS NULL", classID).
		Order("active_from ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *classRepository) GetActiveAssignment(ctx context.Context, classID, staffUserID uint) (models.ClassStaff, error) {
	var assignment models.ClassStaff
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND staff_user_id = ? AND active_to IS NULL", classID, staffUserID).
		First(&assignment).Error; err != nil {
		return models.ClassStaff{}, err
	}

	return assignment, nil
}

func (r *classRepository) AssignStaff(ctx context.Context, assignment *models.ClassStaff) error {
	return r.db.WithContext(ctx).Omit("Class", "StaffUser").Create(assignment).Error
}

func (r *classRepository) EndAssignment(ctx context.Context, assignmentID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ClassStaff{}).
		Where("id = ?", assignmentID).
		Update("active_to", at).Error
}
