package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// StudentHandler exposes roster changes on individual students.
type StudentHandler struct {
	students service.StudentService
	logger   zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		logger:   logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches routes.
func (h *StudentHandler) Register(router fiber.Router, guard Guard) {
	router.Delete("/:id", guard(service.ActionStudentsManage), h.remove)
	router.Post("/:id/transfer", guard(service.ActionStudentsTransfer), h.transfer)
	router.Get("/:id/transfers", guard(service.ActionReportsView), h.transfers)
}

func (h *StudentHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.students.Remove(c.UserContext(), id); err != nil {
		return handleServiceError(c, h.logger, err, "failed to remove student")
	}

	return utils.SendSuccess(c, "student removed", nil)
}

func (h *StudentHandler) transfer(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.StudentTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	transfer, err := h.students.Transfer(c.UserContext(), id, req, middleware.UserID(c))
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to transfer student")
	}

	return utils.SendSuccess(c, "student transferred", transfer)
}

func (h *StudentHandler) transfers(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	history, err := h.students.Transfers(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list transfers")
	}

	return utils.SendSuccess(c, "transfers retrieved", history)
}
