package dto

import (
	"time"

	"github.com/noah-isme/davomat-api/internal/models"
)

// StudentCreateRequest enrols a student in a class.
type StudentCreateRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
}

// StudentTransferRequest moves a student to another class.
type StudentTransferRequest struct {
	ToClassID uint `json:"to_class_id" validate:"required,gt=0"`
}

// StudentResponse describes a student.
type StudentResponse struct {
	ID        uint      `json:"id"`
	ClassID   uint      `json:"class_id"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassLite summarizes a class inside other payloads.
type ClassLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TransferResponse describes one entry of the transfer log.
type TransferResponse struct {
	ID            uint      `json:"id"`
	StudentID     uint      `json:"student_id"`
	FromClass     ClassLite `json:"from_class"`
	ToClass       ClassLite `json:"to_class"`
	ByUser        UserLite  `json:"by_user"`
	TransferredAt time.Time `json:"transferred_at"`
}

// NewStudentResponse maps a student to its response.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:        student.ID,
		ClassID:   student.ClassID,
		FullName:  student.FullName,
		IsActive:  student.IsActive,
		CreatedAt: student.CreatedAt,
	}
}

// NewStudentResponseSlice maps students to responses.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	result := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		result = append(result, NewStudentResponse(student))
	}
	return result
}

// NewTransferResponse maps a transfer log entry to its response.
func NewTransferResponse(transfer models.Transfer) TransferResponse {
	return TransferResponse{
		ID:            transfer.ID,
		StudentID:     transfer.StudentID,
		FromClass:     ClassLite{ID: transfer.FromClassID, Name: transfer.FromClass.Name},
		ToClass:       ClassLite{ID: transfer.ToClassID, Name: transfer.ToClass.Name},
		ByUser:        UserLite{ID: transfer.ByUserID, FullName: transfer.ByUser.FullName},
		TransferredAt: transfer.TransferredAt,
	}
}
