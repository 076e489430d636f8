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
)

var (
	// ErrClassNotFound indicates the class does not exist.
	ErrClassNotFound = errors.New("class not found")
	// ErrClassExists indicates a class with the same name already exists.
	ErrClassExists = errors.New("class already exists")
	// ErrClassNotEmpty indicates the class still has active students.
	ErrClassNotEmpty = errors.New("class still has active students")
	// ErrNotStaffRole indicates the user cannot be assigned to a class.
	ErrNotStaffRole = errors.New("user is not an active staff member")
	// ErrStaffAlreadyAssigned indicates an active assignment already exists.
	ErrStaffAlreadyAssigned = errors.New("staff member already assigned to class")
	// ErrStaffNotAssigned indicates there is no active assignment to end.
	ErrStaffNotAssigned = errors.New("staff member is not assigned to class")
)

// ClassService manages classes and their staff.
type ClassService interface {
	Create(ctx context.Context, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	List(ctx context.Context) ([]dto.ClassResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassResponse, error)
	Delete(ctx context.Context, id uint) error
	AssignStaff(ctx context.Context, classID uint, payload dto.ClassStaffAssignRequest) (dto.ClassStaffResponse, error)
	RemoveStaff(ctx context.Context, classID, staffUserID uint) error
	ListStaff(ctx context.Context, classID uint) ([]dto.ClassStaffResponse, error)
}

type classService struct {
	classes   repository.ClassRepository
	students  repository.StudentRepository
	users     repository.UserRepository
	cache     ClassReportCache
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClassService constructs the class service.
func NewClassService(classes repository.ClassRepository, students repository.StudentRepository, users repository.UserRepository, cache ClassReportCache, validate *validator.Validate, logger zerolog.Logger) ClassService {
	if cache == nil {
		cache = NopClassReportCache{}
	}

	return &classService{
		classes:   classes,
		students:  students,
		users:     users,
		cache:     cache,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "class_service").Logger(),
		now:       time.Now,
	}
}

func (s *classService) Create(ctx context.Context, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	payload.Name = strings.TrimSpace(s.policy.Sanitize(payload.Name))
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	if _, err := s.classes.GetByName(ctx, payload.Name); err == nil {
		return dto.ClassResponse{}, ErrClassExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassResponse{}, err
	}

	class := models.Class{Name: payload.Name, CreatedAt: s.now().UTC()}
	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Str("name", class.Name).Msg("class created")
	return dto.NewClassResponse(class), nil
}

func (s *classService) List(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Get(ctx context.Context, id uint) (dto.ClassResponse, error) {
	class, err := s.findClass(ctx, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, id uint) error {
	if _, err := s.findClass(ctx, id); err != nil {
		return err
	}

	active, err := s.students.CountByClass(ctx, id, true)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrClassNotEmpty
	}

	if err := s.classes.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	s.cache.Invalidate(ctx, id)
	s.logger.Info().Uint("class_id", id).Msg("class deleted")
	return nil
}

func (s *classService) AssignStaff(ctx context.Context, classID uint, payload dto.ClassStaffAssignRequest) (dto.ClassStaffResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassStaffResponse{}, err
	}
	if _, err := s.findClass(ctx, classID); err != nil {
		return dto.ClassStaffResponse{}, err
	}

	user, err := s.users.GetByID(ctx, payload.StaffUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassStaffResponse{}, ErrUserNotFound
		}
		return dto.ClassStaffResponse{}, err
	}
	if user.Role != models.RoleStaff || !user.IsActive {
		return dto.ClassStaffResponse{}, ErrNotStaffRole
	}

	if _, err := s.classes.GetActiveAssignment(ctx, classID, user.ID); err == nil {
		return dto.ClassStaffResponse{}, ErrStaffAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassStaffResponse{}, err
	}

	assignment := models.ClassStaff{
		ClassID:     classID,
		StaffUserID: user.ID,
		ActiveFrom:  s.now().UTC(),
	}
	if err := s.classes.AssignStaff(ctx, &assignment); err != nil {
		return dto.ClassStaffResponse{}, err
	}
	assignment.StaffUser = user

	s.cache.Invalidate(ctx, classID)
	s.logger.Info().Uint("class_id", classID).Uint("staff_user_id", user.ID).Msg("staff assigned to class")
	return dto.NewClassStaffResponse(assignment), nil
}

func (s *classService) RemoveStaff(ctx context.Context, classID, staffUserID uint) error {
	assignment, err := s.classes.GetActiveAssignment(ctx, classID, staffUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStaffNotAssigned
		}
		return err
	}

	if err := s.classes.EndAssignment(ctx, assignment.ID, s.now().UTC()); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, classID)
	s.logger.Info().Uint("class_id", classID).Uint("staff_user_id", staffUserID).Msg("staff removed from class")
	return nil
}

func (s *classService) ListStaff(ctx context.Context, classID uint) ([]dto.ClassStaffResponse, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}

	assignments, err := s.classes.ListActiveStaff(ctx, classID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ClassStaffResponse, 0, len(assignments))
	for _, assignment := range assignments {
		result = append(result, dto.NewClassStaffResponse(assignment))
	}

	return result, nil
}

func (s *classService) findClass(ctx context.Context, id uint) (models.Class, error) {
	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}

	return class, nil
}
