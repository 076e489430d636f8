package dto

import (
	"time"

	"github.com/noah-isme/davomat-api/internal/models"
)

// LoginRequest mirrors the contact shared by a Telegram user.
type LoginRequest struct {
	TelegramID int64  `json:"telegram_id" validate:"required,gt=0"`
	Phone      string `json:"phone" validate:"required,min=7,max=32"`
	FullName   string `json:"full_name" validate:"omitempty,max=255"`
}

// LoginResponse returns the access token for an authenticated user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// StaffCreateRequest registers a staff member or administrator by phone.
type StaffCreateRequest struct {
	Phone    string `json:"phone" validate:"required,min=7,max=32"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
}

// UserResponse describes an account.
type UserResponse struct {
	ID           uint      `json:"id"`
	TelegramID   *int64    `json:"telegram_id"`
	Phone        string    `json:"phone"`
	PhoneDisplay string    `json:"phone_display"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserLite summarizes an account inside other payloads.
type UserLite struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
}

// NewUserLite maps a user to its short form.
func NewUserLite(user models.User) UserLite {
	return UserLite{ID: user.ID, FullName: user.FullName}
}
