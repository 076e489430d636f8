package service

import (
	"context"

	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
)

// RosterProvider answers who is currently enrolled in a class.
type RosterProvider interface {
	EnrolledCount(ctx context.Context, classID uint) (int, error)
	// ListEnrolled returns active students ordered by full name.
	ListEnrolled(ctx context.Context, classID uint) ([]models.Student, error)
}

type studentRoster struct {
	students repository.StudentRepository
}

// NewRosterProvider builds a roster backed by the live student table.
func NewRosterProvider(students repository.StudentRepository) RosterProvider {
	return &studentRoster{students: students}
}

func (r *studentRoster) EnrolledCount(ctx context.Context, classID uint) (int, error) {
	return r.students.CountByClass(ctx, classID, true)
}

func (r *studentRoster) ListEnrolled(ctx context.Context, classID uint) ([]models.Student, error) {
	return r.students.ListByClass(ctx, classID, true)
}
