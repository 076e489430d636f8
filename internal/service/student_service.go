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
	"github.com/noah-isme/davomat-api/internal/events"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentInactive indicates the student was already removed from the roster.
	ErrStudentInactive = errors.New("student is not active")
	// ErrTargetClassNotFound indicates the transfer destination does not exist.
	ErrTargetClassNotFound = errors.New("target class not found")
	// ErrSameClass indicates a transfer into the student's current class.
	ErrSameClass = errors.New("student already belongs to this class")
)

// StudentService manages class rosters.
type StudentService interface {
	Add(ctx context.Context, classID uint, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Remove(ctx context.Context, studentID uint) error
	ListByClass(ctx context.Context, classID uint, activeOnly bool) ([]models.Student, error)
	Transfer(ctx context.Context, studentID uint, payload dto.StudentTransferRequest, actorID uint) (dto.TransferResponse, error)
	Transfers(ctx context.Context, studentID uint) ([]dto.TransferResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	transfers repository.TransferRepository
	classes   repository.ClassRepository
	cache     ClassReportCache
	publisher events.Publisher
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService constructs the roster service.
func NewStudentService(students repository.StudentRepository, transfers repository.TransferRepository, classes repository.ClassRepository, cache ClassReportCache, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) StudentService {
	if cache == nil {
		cache = NopClassReportCache{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &studentService{
		students:  students,
		transfers: transfers,
		classes:   classes,
		cache:     cache,
		publisher: publisher,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

func (s *studentService) Add(ctx context.Context, classID uint, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	payload.FullName = strings.TrimSpace(s.policy.Sanitize(payload.FullName))
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrClassNotFound
		}
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		ClassID:   classID,
		FullName:  payload.FullName,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.cache.Invalidate(ctx, classID)
	s.logger.Info().Uint("student_id", student.ID).Uint("class_id", classID).Msg("student added")
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Remove(ctx context.Context, studentID uint) error {
	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if !student.IsActive {
		return ErrStudentInactive
	}

	if err := s.students.Deactivate(ctx, &student); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, student.ClassID)
	s.logger.Info().Uint("student_id", student.ID).Uint("class_id", student.ClassID).Msg("student removed")
	return nil
}

func (s *studentService) ListByClass(ctx context.Context, classID uint, activeOnly bool) ([]models.Student, error) {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	return s.students.ListByClass(ctx, classID, activeOnly)
}

func (s *studentService) Transfer(ctx context.Context, studentID uint, payload dto.StudentTransferRequest, actorID uint) (dto.TransferResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TransferResponse{}, err
	}

	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return dto.TransferResponse{}, err
	}
	if !student.IsActive {
		return dto.TransferResponse{}, ErrStudentInactive
	}
	if student.ClassID == payload.ToClassID {
		return dto.TransferResponse{}, ErrSameClass
	}

	from, err := s.classes.GetByID(ctx, student.ClassID)
	if err != nil {
		return dto.TransferResponse{}, err
	}
	to, err := s.classes.GetByID(ctx, payload.ToClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TransferResponse{}, ErrTargetClassNotFound
		}
		return dto.TransferResponse{}, err
	}

	transfer, err := s.students.Transfer(ctx, &student, to.ID, actorID, s.now().UTC())
	if err != nil {
		return dto.TransferResponse{}, err
	}
	transfer.FromClass = from
	transfer.ToClass = to

	s.cache.Invalidate(ctx, from.ID, to.ID)
	s.logger.Info().
		Uint("student_id", student.ID).
		Uint("from_class_id", from.ID).
		Uint("to_class_id", to.ID).
		Uint("by_user_id", actorID).
		Msg("student transferred")

	event := events.NewEvent(events.TypeStudentTransferred, map[string]interface{}{
		"student_id":    student.ID,
		"from_class_id": from.ID,
		"to_class_id":   to.ID,
		"by_user_id":    actorID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to publish transfer event")
	}

	return dto.NewTransferResponse(transfer), nil
}

func (s *studentService) Transfers(ctx context.Context, studentID uint) ([]dto.TransferResponse, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}

	transfers, err := s.transfers.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.TransferResponse, 0, len(transfers))
	for _, transfer := range transfers {
		result = append(result, dto.NewTransferResponse(transfer))
	}

	return result, nil
}

func (s *studentService) findStudent(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	return student, nil
}
