package handler

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/models"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// AttendanceHandler exposes the attendance ledger over HTTP.
type AttendanceHandler struct {
	service   service.AttendanceService
	reports   service.ReportService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance service.AttendanceService, reports service.ReportService, validate *validator.Validate, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service:   attendance,
		reports:   reports,
		validator: validate,
		logger:    logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches routes.
func (h *AttendanceHandler) Register(router fiber.Router, guard Guard) {
	router.Post("/days", guard(service.ActionAttendanceMark), h.openDay)
	router.Get("/days/:id", guard(service.ActionAttendanceView), h.getDay)
	router.Put("/days/:id/entries/:studentId", guard(service.ActionAttendanceMark), h.setStatus)
	router.Get("/days/:id/summary", guard(service.ActionAttendanceView), h.summary)
	router.Post("/days/:id/finalize", guard(service.ActionAttendanceFinalize), h.finalize)
	router.Post("/days/:id/reopen", guard(service.ActionAttendanceReopen), h.reopen)
	router.Get("/days/:id/export", guard(service.ActionReportsView), h.export)
}

func (h *AttendanceHandler) openDay(c *fiber.Ctx) error {
	var req dto.AttendanceDayRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	day, created, err := h.service.GetOrCreateDay(c.UserContext(), req.ClassID, date, middleware.UserID(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance day created", dto.NewAttendanceDayResponse(day))
	}
	return utils.SendSuccess(c, "attendance day retrieved", dto.NewAttendanceDayResponse(day))
}

func (h *AttendanceHandler) getDay(c *fiber.Ctx) error {
	dayID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.UserContext()
	day, err := h.service.GetDay(ctx, dayID)
	if err != nil {
		return h.handleError(c, err)
	}
	entries, err := h.service.ListEntries(ctx, dayID)
	if err != nil {
		return h.handleError(c, err)
	}
	summary, err := h.service.Summarize(ctx, dayID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance day retrieved", dto.AttendanceSheetResponse{
		Day:     dto.NewAttendanceDayResponse(day),
		Entries: dto.NewAttendanceEntryResponses(entries),
		Summary: dto.NewAttendanceSummaryResponse(summary),
	})
}

func (h *AttendanceHandler) setStatus(c *fiber.Ctx) error {
	dayID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.AttendanceMarkRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	// Unknown values reach the ledger as an invalid status so a locked day
	// still reports the lock first.
	status, _ := models.ParseAttendanceStatus(req.Status)

	entry, err := h.service.SetStatus(c.UserContext(), dayID, studentID, status)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance status saved", dto.NewAttendanceMarkResponse(entry))
}

func (h *AttendanceHandler) summary(c *fiber.Ctx) error {
	dayID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.Summarize(c.UserContext(), dayID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance summary retrieved", dto.NewAttendanceSummaryResponse(summary))
}

func (h *AttendanceHandler) finalize(c *fiber.Ctx) error {
	dayID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	day, err := h.service.Finalize(c.UserContext(), dayID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance day finalized", dto.NewAttendanceDayResponse(day))
}

func (h *AttendanceHandler) reopen(c *fiber.Ctx) error {
	dayID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	day, err := h.service.Reopen(c.UserContext(), dayID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance day reopened", dto.NewAttendanceDayResponse(day))
}

func (h *AttendanceHandler) export(c *fiber.Ctx) error {
	dayID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	export, err := h.reports.ExportDay(c.UserContext(), dayID)
	if err != nil {
		return h.handleError(c, err)
	}

	return sendExport(c, export)
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	var incomplete *service.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		return utils.Fail(c, fiber.StatusConflict, fmt.Sprintf("%d students are not marked yet", incomplete.Unmarked), dto.AttendanceIncompleteDetails{
			Unmarked: incomplete.Unmarked,
			Marked:   incomplete.Marked,
			Total:    incomplete.Total,
		})
	case errors.Is(err, service.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attendance record not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrRecordLocked):
		return utils.SendError(c, fiber.StatusConflict, "attendance record is finalized")
	case errors.Is(err, service.ErrAlreadyFinalized):
		return utils.SendError(c, fiber.StatusConflict, "attendance record already finalized")
	case errors.Is(err, service.ErrInvalidStatus):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "invalid attendance status", fiber.Map{"allowed": []string{"present", "late", "absent"}})
	case errors.Is(err, service.ErrStudentNotEnrolled):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "student is not enrolled in this class")
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("path", c.Path()).Msg("attendance request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "attendance storage unavailable, try again")
	}
}

func sendExport(c *fiber.Ctx, export service.Export) error {
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", export.Filename, url.PathEscape(export.Filename)))
	return c.Status(fiber.StatusOK).Send(export.Body.Bytes())
}
