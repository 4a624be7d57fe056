package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classworks/lms-api/internal/config"
	"github.com/classworks/lms-api/internal/handler"
	"github.com/classworks/lms-api/internal/middleware"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CourseHandler     *handler.CourseHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	QuizHandler       *handler.QuizHandler
	MaterialHandler   *handler.MaterialHandler
	NoticeHandler     *handler.NoticeHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.CourseHandler != nil {
		courses := api.Group("/courses", jwtMiddleware)
		deps.CourseHandler.Register(courses)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)

		if deps.SubmissionHandler != nil {
			// Submits are rate limited per student to keep upload abuse in check.
			submitGroup := api.Group("/assignments", jwtMiddleware,
				middleware.RequireRole(models.RoleStudent),
				middleware.RateLimit("assignment_submit", 10, time.Minute))
			deps.SubmissionHandler.RegisterSubmitRoute(submitGroup)
		}
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware,
			middleware.RequireRole(models.RoleTeacher, models.RoleAdmin, models.RoleStudent))
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.QuizHandler != nil {
		quizzes := api.Group("/quizzes", jwtMiddleware)
		deps.QuizHandler.Register(quizzes)
	}

	if deps.MaterialHandler != nil {
		materials := api.Group("/materials", jwtMiddleware)
		deps.MaterialHandler.Register(materials)
	}

	if deps.NoticeHandler != nil {
		notices := api.Group("/notices", jwtMiddleware)
		deps.NoticeHandler.Register(notices)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.ActivityHandler.Register(activity)
	}
}
