package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// ClassHandler exposes classes, their staff and their rosters.
type ClassHandler struct {
	classes  service.ClassService
	students service.StudentService
	reports  service.ReportService
	logger   zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(classes service.ClassService, students service.StudentService, reports service.ReportService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		classes:  classes,
		students: students,
		reports:  reports,
		logger:   logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ClassHandler) Register(router fiber.Router, guard Guard) {
	router.Get("", guard(service.ActionReportsView), h.list)
	router.Post("", guard(service.ActionClassesManage), h.create)
	router.Get("/:id", guard(service.ActionReportsView), h.get)
	router.Delete("/:id", guard(service.ActionClassesManage), h.delete)
	router.Get("/:id/staff", guard(service.ActionReportsView), h.listStaff)
	router.Post("/:id/staff", guard(service.ActionClassesManage), h.assignStaff)
	router.Delete("/:id/staff/:userId", guard(service.ActionClassesManage), h.removeStaff)
	router.Get("/:id/students/export", guard(service.ActionReportsView), h.exportStudents)
	router.Get("/:id/students", guard(service.ActionAttendanceView), h.listStudents)
	router.Post("/:id/students", guard(service.ActionStudentsManage), h.addStudent)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.classes.List(c.UserContext())
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list classes")
	}

	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var req dto.ClassCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	class, err := h.classes.Create(c.UserContext(), req)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to create class")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	class, err := h.classes.Get(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to fetch class")
	}

	return utils.SendSuccess(c, "class retrieved", class)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.classes.Delete(c.UserContext(), id); err != nil {
		return handleServiceError(c, h.logger, err, "failed to delete class")
	}

	return utils.SendSuccess(c, "class deleted", nil)
}

func (h *ClassHandler) listStaff(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	staff, err := h.classes.ListStaff(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list class staff")
	}

	return utils.SendSuccess(c, "class staff retrieved", staff)
}

func (h *ClassHandler) assignStaff(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.ClassStaffAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.classes.AssignStaff(c.UserContext(), id, req)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to assign staff")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "staff assigned", assignment)
}

func (h *ClassHandler) removeStaff(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.classes.RemoveStaff(c.UserContext(), id, userID); err != nil {
		return handleServiceError(c, h.logger, err, "failed to remove staff")
	}

	return utils.SendSuccess(c, "staff removed", nil)
}

func (h *ClassHandler) listStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activeOnly := c.QueryBool("active", true)
	students, err := h.students.ListByClass(c.UserContext(), id, activeOnly)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to list students")
	}

	return utils.SendSuccess(c, "students retrieved", dto.NewStudentResponseSlice(students))
}

func (h *ClassHandler) addStudent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.StudentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.students.Add(c.UserContext(), id, req)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to add student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student added", student)
}

func (h *ClassHandler) exportStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	export, err := h.reports.ExportRoster(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to export students")
	}

	return sendExport(c, export)
}
