package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/davomat-api/internal/config"
	"github.com/noah-isme/davomat-api/internal/database"
	"github.com/noah-isme/davomat-api/internal/events"
	"github.com/noah-isme/davomat-api/internal/handler"
	"github.com/noah-isme/davomat-api/internal/middleware"
	"github.com/noah-isme/davomat-api/internal/repository"
	"github.com/noah-isme/davomat-api/internal/router"
	"github.com/noah-isme/davomat-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "davomat-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, class reports will not be cached")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		conn, err := events.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, domain events disabled")
		} else {
			defer conn.Drain()
			publisher = events.NewNATSPublisher(conn, cfg.NATSSubjectPrefix)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	reportCache := service.NewRedisClassReportCache(redisClient, cfg.ReportCacheTTL, logger)
	gate := service.NewAccessGate(userRepo)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, service.NewRosterProvider(studentRepo), publisher, cfg.Location, logger)
	userService := service.NewUserService(userRepo, tokens, validate, logger)
	classService := service.NewClassService(classRepo, studentRepo, userRepo, reportCache, validate, logger)
	studentService := service.NewStudentService(studentRepo, transferRepo, classRepo, reportCache, publisher, validate, logger)
	reportService := service.NewReportService(attendanceService, classRepo, studentRepo, reportCache, logger)

	if cfg.HasBootstrapAdmin() {
		admin, created, err := userService.EnsureAdmin(context.Background(), service.AdminBootstrap{
			TelegramID: cfg.BootstrapTelegramID,
			Phone:      cfg.BootstrapPhone,
			FullName:   cfg.BootstrapName,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to bootstrap administrator")
		}
		logger.Info().Uint("user_id", admin.ID).Bool("created", created).Msg("administrator ready")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(userService, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceService, reportService, validate, logger),
		ClassHandler:      handler.NewClassHandler(classService, studentService, reportService, logger),
		StudentHandler:    handler.NewStudentHandler(studentService, logger),
		StaffHandler:      handler.NewStaffHandler(userService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		Gate:              gate,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		LoginLimiter:      middleware.RateLimit("login", cfg.LoginRateLimit, time.Minute),
		Logger:            logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
