package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// Guard builds the authorization middleware for an action.
type Guard func(action service.Action) fiber.Handler

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, errors.New(key + " is required")
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

// parseDate reads a YYYY-MM-DD date. An empty value yields the zero time, which
// services interpret as today.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.New("date must use the YYYY-MM-DD format")
	}
	return parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

// serviceErrorStatus maps roster, class and account errors to HTTP statuses.
func serviceErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrClassNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTargetClassNotFound),
		errors.Is(err, service.ErrNoAttendanceRecord),
		errors.Is(err, service.ErrRecordNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, service.ErrClassExists),
		errors.Is(err, service.ErrClassNotEmpty),
		errors.Is(err, service.ErrStaffAlreadyAssigned),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrSameClass),
		errors.Is(err, service.ErrStudentInactive):
		return fiber.StatusConflict, true
	case errors.Is(err, service.ErrStaffNotAssigned):
		return fiber.StatusNotFound, true
	case errors.Is(err, service.ErrNotStaffRole),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidRole):
		return fiber.StatusUnprocessableEntity, true
	case errors.Is(err, service.ErrUserNotRegistered),
		errors.Is(err, service.ErrUserInactive):
		return fiber.StatusForbidden, true
	default:
		return 0, false
	}
}

func handleServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, failure string) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}
	if status, ok := serviceErrorStatus(err); ok {
		return utils.SendError(c, status, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(failure)
	return utils.SendError(c, fiber.StatusInternalServerError, failure)
}
