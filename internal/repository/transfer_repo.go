package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/models"
)

// TransferRepository reads the student transfer log.
type TransferRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Transfer, error)
}

type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository constructs a transfer repository.
func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Transfer, error) {
	var transfers []models.Transfer
	if err := r.db.WithContext(ctx).
		Preload("FromClass").
		Preload("ToClass").
		Preload("ByUser").
		Where("student_id = ?", studentID).
		Order("transferred_at DESC").
		Order("id DESC").
		Find(&transfers).Error; err != nil {
		return nil, err
	}

	return transfers, nil
}
