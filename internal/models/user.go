package models

import "time"

// Role enumerates the kinds of accounts that may use the service.
type Role string

const (
	// RoleAdmin manages classes, staff and may reopen finalized attendance.
	RoleAdmin Role = "admin"
	// RoleStaff records attendance and manages students of their classes.
	RoleStaff Role = "staff"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff:
		return true
	default:
		return false
	}
}

// User is a staff member or administrator identified by their Telegram account.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID *int64    `gorm:"uniqueIndex" json:"telegram_id"`
	Phone      string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	FullName   string    `gorm:"size:255;not null" json:"full_name"`
	Role       Role      `gorm:"size:20;not null" json:"role"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsAdmin reports whether the user is an active administrator.
func (u User) IsAdmin() bool {
	return u.IsActive && u.Role == RoleAdmin
}
