package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/service"
	"github.com/noah-isme/davomat-api/internal/utils"
)

// Authorize consults the access gate before letting the request reach the handler.
func Authorize(gate service.AccessGate, action service.Action, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID := UserID(c)
		if actorID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		decision, err := gate.Authorize(c.UserContext(), actorID, action)
		if err != nil {
			logger.Error().Err(err).
				Str("correlation_id", GetCorrelationID(c)).
				Uint("user_id", actorID).
				Str("action", string(action)).
				Msg("authorization check failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "could not verify permissions, try again")
		}
		if !decision.Allowed {
			return utils.Fail(c, fiber.StatusForbidden, decision.Reason, fiber.Map{"action": action})
		}

		return c.Next()
	}
}
