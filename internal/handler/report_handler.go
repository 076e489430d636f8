package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/report"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// ReportHandler exposes daily and class reports.
type ReportHandler struct {
	reports service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ReportHandler) Register(router fiber.Router, guard Guard) {
	router.Get("/daily", guard(service.ActionReportsView), h.daily)
	router.Get("/classes/:id", guard(service.ActionReportsView), h.class)
}

func (h *ReportHandler) daily(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	date, err := parseDate(c.Query("date"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.reports.Daily(c.UserContext(), classID, date)
	if err != nil {
		if errors.Is(err, service.ErrNoAttendanceRecord) && !date.IsZero() {
			return utils.SendError(c, fiber.StatusNotFound, report.NoRecord(date))
		}
		return handleServiceError(c, h.logger, err, "failed to build daily report")
	}

	return utils.SendSuccess(c, "daily report generated", result)
}

func (h *ReportHandler) class(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.reports.Class(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to build class report")
	}

	return utils.SendSuccess(c, "class report generated", result)
}
