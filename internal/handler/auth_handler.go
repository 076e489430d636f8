package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/dto"
	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// AuthHandler exchanges a shared Telegram contact for an access token.
type AuthHandler struct {
	users  service.UserService
	logger zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users service.UserService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches routes. Extra middleware such as a rate limiter run before login.
func (h *AuthHandler) Register(router fiber.Router, middlewares ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, middlewares...), h.login)
	router.Post("/login", handlers...)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.users.Login(c.UserContext(), req)
	if err != nil {
		return handleServiceError(c, h.logger, err, "failed to log in")
	}

	return utils.SendSuccess(c, "login successful", resp)
}
