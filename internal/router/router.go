package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/atlas-lms/atlas-api/internal/config"
	"github.com/atlas-lms/atlas-api/internal/handler"
	"github.com/atlas-lms/atlas-api/internal/middleware"
	"github.com/atlas-lms/atlas-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler  *handler.AssignmentHandler
	SubmissionHandler  *handler.SubmissionHandler
	GradingHandler     *handler.GradingHandler
	CourseGradeHandler *handler.CourseGradeHandler
	ActivityHandler    *handler.ActivityHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	submit := middleware.RequireCapability(middleware.CapabilitySubmit)
	grade := middleware.RequireCapability(middleware.CapabilityGrade)
	manage := middleware.RequireCapability(middleware.CapabilityManage)
	view := middleware.RequireCapability(middleware.CapabilityView)

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware, view)
		deps.AssignmentHandler.Register(assignments, manage)

		if deps.SubmissionHandler != nil {
			submitLimit := middleware.RateLimit("submissions", 30, time.Minute)
			deps.SubmissionHandler.Register(assignments, submit, submitLimit, grade)
		}
	}

	if deps.GradingHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, view)
		deps.GradingHandler.Register(submissions, grade)
	}

	if deps.CourseGradeHandler != nil {
		courses := api.Group("/courses", jwtMiddleware, view)
		deps.CourseGradeHandler.Register(courses, grade)
	}

	if deps.ActivityHandler != nil {
		admin := api.Group("/admin", jwtMiddleware)
		deps.ActivityHandler.Register(admin, manage)
	}
}
