package dto

import (
	"time"

	"github.com/noah-isme/davomat-api/internal/models"
)

// ClassCreateRequest creates a class.
type ClassCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// ClassStaffAssignRequest assigns a staff member to a class.
type ClassStaffAssignRequest struct {
	StaffUserID uint `json:"staff_user_id" validate:"required,gt=0"`
}

// ClassResponse describes a class.
type ClassResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	TotalStudents int       `json:"total_students"`
	CreatedAt     time.Time `json:"created_at"`
}

// ClassStaffResponse describes an active staff assignment.
type ClassStaffResponse struct {
	ID         uint      `json:"id"`
	ClassID    uint      `json:"class_id"`
	StaffUser  UserLite  `json:"staff_user"`
	ActiveFrom time.Time `json:"active_from"`
}

// NewClassResponse maps a class to its response.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:            class.ID,
		Name:          class.Name,
		TotalStudents: class.TotalStudents,
		CreatedAt:     class.CreatedAt,
	}
}

// NewClassResponseSlice maps classes to responses.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	result := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		result = append(result, NewClassResponse(class))
	}
	return result
}

// NewClassStaffResponse maps an assignment to its response.
func NewClassStaffResponse(assignment models.ClassStaff) ClassStaffResponse {
	return ClassStaffResponse{
		ID:         assignment.ID,
		ClassID:    assignment.ClassID,
		StaffUser:  NewUserLite(assignment.StaffUser),
		ActiveFrom: assignment.ActiveFrom,
	}
}
