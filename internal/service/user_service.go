package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
	"github.com/noah-isme/davomat-api/pkg/phone"
)

var (
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserNotRegistered indicates neither the telegram id nor the phone is known.
	ErrUserNotRegistered = errors.New("user is not registered")
	// ErrUserInactive indicates the account was deactivated.
	ErrUserInactive = errors.New("user is inactive")
	// ErrUserExists indicates the phone or telegram id is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidPhone indicates the phone number cannot be normalized.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrInvalidRole indicates an unknown role.
	ErrInvalidRole = errors.New("invalid role")
)

// AdminBootstrap describes the administrator created on first start.
type AdminBootstrap struct {
	TelegramID int64
	Phone      string
	FullName   string
}

// UserService manages staff accounts and login.
type UserService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	CreateStaff(ctx context.Context, payload dto.StaffCreateRequest) (dto.UserResponse, error)
	ListStaff(ctx context.Context) ([]dto.UserResponse, error)
	Deactivate(ctx context.Context, id uint) error
	EnsureAdmin(ctx context.Context, admin AdminBootstrap) (dto.UserResponse, bool, error)
}

type userService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, tokens TokenIssuer, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		tokens:    tokens,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "user_service").Logger(),
		now:       time.Now,
	}
}

func (s *userService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByTelegramID(ctx, payload.TelegramID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.bindByPhone(ctx, payload)
		if err != nil {
			return dto.LoginResponse{}, err
		}
	default:
		return dto.LoginResponse{}, err
	}

	if !user.IsActive {
		return dto.LoginResponse{}, ErrUserInactive
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        toUserResponse(user),
	}, nil
}

// bindByPhone attaches the telegram id to a pre-registered account found by phone.
func (s *userService) bindByPhone(ctx context.Context, payload dto.LoginRequest) (models.User, error) {
	normalized := phone.Normalize(payload.Phone)
	if normalized == "" {
		return models.User{}, ErrInvalidPhone
	}

	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotRegistered
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, ErrUserInactive
	}
	if user.TelegramID != nil && *user.TelegramID != payload.TelegramID {
		return models.User{}, ErrUserExists
	}

	telegramID := payload.TelegramID
	user.TelegramID = &telegramID
	if name := strings.TrimSpace(s.policy.Sanitize(payload.FullName)); name != "" {
		user.FullName = name
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return models.User{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("telegram account bound to user")
	return user, nil
}

func (s *userService) CreateStaff(ctx context.Context, payload dto.StaffCreateRequest) (dto.UserResponse, error) {
	payload.FullName = strings.TrimSpace(s.policy.Sanitize(payload.FullName))
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	role := models.RoleStaff
	if payload.Role != "" {
		role = models.Role(payload.Role)
	}
	if !role.Valid() {
		return dto.UserResponse{}, ErrInvalidRole
	}

	user, err := s.register(ctx, 0, payload.Phone, payload.FullName, role)
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", string(role)).Msg("staff member registered")
	return toUserResponse(user), nil
}

func (s *userService) ListStaff(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.ListByRole(ctx, models.RoleStaff, true)
	if err != nil {
		return nil, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		result = append(result, toUserResponse(user))
	}

	return result, nil
}

func (s *userService) Deactivate(ctx context.Context, id uint) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	user.IsActive = false
	if err := s.users.Update(ctx, &user); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user deactivated")
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, admin AdminBootstrap) (dto.UserResponse, bool, error) {
	if admin.TelegramID != 0 {
		if user, err := s.users.GetByTelegramID(ctx, admin.TelegramID); err == nil {
			return toUserResponse(user), false, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, false, err
		}
	}

	normalized := phone.Normalize(admin.Phone)
	if normalized != "" {
		if user, err := s.users.GetByPhone(ctx, normalized); err == nil {
			return toUserResponse(user), false, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, false, err
		}
	}

	name := strings.TrimSpace(admin.FullName)
	if name == "" {
		name = "Administrator"
	}

	user, err := s.register(ctx, admin.TelegramID, admin.Phone, name, models.RoleAdmin)
	if err != nil {
		return dto.UserResponse{}, false, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("bootstrap administrator created")
	return toUserResponse(user), true, nil
}

func (s *userService) register(ctx context.Context, telegramID int64, rawPhone, fullName string, role models.Role) (models.User, error) {
	normalized := phone.Normalize(rawPhone)
	if len(normalized) < 7 {
		return models.User{}, ErrInvalidPhone
	}

	if _, err := s.users.GetByPhone(ctx, normalized); err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	user := models.User{
		Phone:     normalized,
		FullName:  fullName,
		Role:      role,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if telegramID != 0 {
		if _, err := s.users.GetByTelegramID(ctx, telegramID); err == nil {
			return models.User{}, ErrUserExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, err
		}
		user.TelegramID = &telegramID
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}

	return user, nil
}

func toUserResponse(user models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		TelegramID:   user.TelegramID,
		Phone:        user.Phone,
		PhoneDisplay: phone.FormatDisplay(user.Phone),
		FullName:     user.FullName,
		Role:         string(user.Role),
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
	}
}
