package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/atlas-lms/atlas-api/internal/config"
	"github.com/atlas-lms/atlas-api/internal/database"
	"github.com/atlas-lms/atlas-api/internal/handler"
	"github.com/atlas-lms/atlas-api/internal/middleware"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/repository"
	"github.com/atlas-lms/atlas-api/internal/router"
	"github.com/atlas-lms/atlas-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.SubmissionGradeHistory{},
		&models.CourseGrade{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL, "atlas-api")
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, domain events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradeRepo := repository.NewCourseGradeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	gate := service.NewEnrollmentGate(enrollmentRepo, courseRepo, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, logger)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentService,
		gate,
		activityService,
		redisClient,
		cfg.CohortCacheTTL,
		natsConn,
		cfg.EventSubjectPrefix,
		validate,
		logger,
	)
	gradingService := service.NewGradingService(
		submissionRepo,
		gate,
		activityService,
		redisClient,
		natsConn,
		cfg.EventSubjectPrefix,
		validate,
		logger,
	)
	courseGradeService := service.NewCourseGradeService(
		gradeRepo,
		courseRepo,
		assignmentRepo,
		gate,
		activityService,
		validate,
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:  handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:     handler.NewGradingHandler(gradingService, submissionService, logger),
		CourseGradeHandler: handler.NewCourseGradeHandler(courseGradeService, logger),
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
