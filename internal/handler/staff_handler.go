package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// StaffHandler exposes staff account management.
type StaffHandler struct {
	users  service.UserService
	logger zerolog.Logger
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(users service.UserService, logger zerolog.Logger) *StaffHandler {
	return &StaffHandler{
		users:  users,
		logger: logger.With().Str("component", "staff_handler").Logger(),
	}
}

// Register attaches routes.
func (h *StaffHandler) Register(router fiber.Router, guard Guard) {
	router.Get("", guard(service.ActionStaffManage), h.list)
	router.Post("", guard(service.ActionStaffManage), h.create)
	router.Delete("/:id", guard(service.ActionStaffManage), h.deactivate)
}

func (h *StaffHandler) list(c *fiber.Ctx) error {
	staff, err := h.users.ListStaff(c.UserContext())
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list staff")
	}

	return utils.SendSuccess(c, "staff retrieved", staff)
}

func (h *StaffHandler) create(c *fiber.Ctx) error {
	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.CreateStaff(c.UserContext(), req)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to register staff")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "staff registered", user)
}

func (h *StaffHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if id == middleware.UserID(c) {
		return utils.SendError(c, fiber.StatusConflict, "you cannot deactivate your own account")
	}

	if err := h.users.Deactivate(c.UserContext(), id); err != nil {
		return handleServiceError(c, h.logger, err, "failed to deactivate user")
	}

	return utils.SendSuccess(c, "user deactivated", nil)
}
