package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/config"
	"github.com/noah-isme/davomat-api/internal/handler"
	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/observability"
	"github.com/noah-isme/davomat-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	AttendanceHandler *handler.AttendanceHandler
	ClassHandler      *handler.ClassHandler
	StudentHandler    *handler.StudentHandler
	StaffHandler      *handler.StaffHandler
	ReportHandler     *handler.ReportHandler
	Gate              service.AccessGate
	JWTMiddleware     fiber.Handler
	LoginLimiter      fiber.Handler
	Logger            zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.AuthHandler != nil {
		var limiters []fiber.Handler
		if deps.LoginLimiter != nil {
			limiters = append(limiters, deps.LoginLimiter)
		}
		deps.AuthHandler.Register(api.Group("/auth"), limiters...)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	guard := func(action service.Action) fiber.Handler {
		return middleware.Authorize(deps.Gate, action, deps.Logger)
	}

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(api.Group("/attendance", jwtMiddleware), guard)
	}
	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(api.Group("/classes", jwtMiddleware), guard)
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware), guard)
	}
	if deps.StaffHandler != nil {
		deps.StaffHandler.Register(api.Group("/staff", jwtMiddleware), guard)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", jwtMiddleware), guard)
	}
}
