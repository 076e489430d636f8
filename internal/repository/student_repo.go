package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/models"
)

// StudentRepository provides access to student records and keeps the class
// counter in step with enrolment changes.
type StudentRepository interface {
	ListByClass(ctx context.Context, classID uint, activeOnly bool) ([]models.Student, error)
	CountByClass(ctx context.Context, classID uint, activeOnly bool) (int, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, student *models.Student) error
	Transfer(ctx context.Context, student *models.Student, toClassID, byUserID uint, at time.Time) (models.Transfer, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) ListByClass(ctx context.Context, classID uint, activeOnly bool) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Where("class_id = ?", classID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var students []models.Student
	if err := query.Order("full_name ASC").Order("id ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) CountByClass(ctx context.Context, classID uint, activeOnly bool) (int, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{}).Where("class_id = ?", classID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}

	return int(total), nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Class").Create(student).Error; err != nil {
			return err
		}
		if student.IsActive {
			return adjustClassTotal(tx, student.ClassID, 1)
		}
		return nil
	})
}

func (r *studentRepository) Deactivate(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Student{}).
			Where("id = ? AND is_active = ?", student.ID, true).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		student.IsActive = false
		return adjustClassTotal(tx, student.ClassID, -1)
	})
}

func (r *studentRepository) Transfer(ctx context.Context, student *models.Student, toClassID, byUserID uint, at time.Time) (models.Transfer, error) {
	transfer := models.Transfer{
		StudentID:     student.ID,
		FromClassID:   student.ClassID,
		ToClassID:     toClassID,
		ByUserID:      byUserID,
		TransferredAt: at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Student", "FromClass", "ToClass", "ByUser").Create(&transfer).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Student{}).
			Where("id = ?", student.ID).
			Update("class_id", toClassID).Error; err != nil {
			return err
		}

		if student.IsActive {
			if err := adjustClassTotal(tx, student.ClassID, -1); err != nil {
				return err
			}
			if err := adjustClassTotal(tx, toClassID, 1); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.Transfer{}, err
	}

	student.ClassID = toClassID
	return transfer, nil
}

func adjustClassTotal(tx *gorm.DB, classID uint, delta int) error {
	expr := gorm.Expr("total_students + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN total_students + ? < 0 THEN 0 ELSE total_students + ? END", delta, delta)
	}

	return tx.Model(&models.Class{}).
		Where("id = ?", classID).
		UpdateColumn("total_students", expr).Error
}
