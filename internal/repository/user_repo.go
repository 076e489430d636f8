package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/models"
)

// UserRepository provides access to staff and administrator accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	GetByPhone(ctx context.Context, phone string) (models.User, error)
	ListByRole(ctx context.Context, role models.Role, activeOnly bool) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role, activeOnly bool) ([]models.User, error) {
	query := r.db.WithContext(ctx).Where("role = ?", role)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if err := query.Order("full_name ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
