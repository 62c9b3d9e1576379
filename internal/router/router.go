package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dipoade/resulta-api/internal/config"
	"github.com/dipoade/resulta-api/internal/handler"
	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ComputationHandler   *handler.ComputationHandler
	MasterRunHandler     *handler.MasterRunHandler
	CarryoverHandler     *handler.CarryoverHandler
	StudentRecordHandler *handler.StudentRecordHandler
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/healthz", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	// Use provided JWT middleware, or a no-op if nil. Role checks only make
	// sense when a real token carried the role claim in.
	jwtMiddleware := deps.JWTMiddleware
	staffOnly := func(c *fiber.Ctx) error { return c.Next() }
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	} else {
		staffOnly = middleware.RequireRole("admin", "registrar", "officer")
	}

	// Computation triggers fan out work across a whole department or term,
	// so POSTs carry a tight per-user budget on top of authentication.
	// Summary reads in the same groups stay unmetered.
	limit := middleware.RateLimit("compute", 10, time.Minute)
	computeLimit := func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost {
			return limit(c)
		}
		return c.Next()
	}

	if deps.ComputationHandler != nil {
		computations := api.Group("/computations", jwtMiddleware, staffOnly, computeLimit)
		deps.ComputationHandler.Register(computations)
	}

	if deps.MasterRunHandler != nil {
		masterRuns := api.Group("/master-runs", jwtMiddleware, staffOnly, computeLimit)
		deps.MasterRunHandler.Register(masterRuns)
	}

	if deps.CarryoverHandler != nil {
		carryovers := api.Group("/carryovers", jwtMiddleware, staffOnly)
		deps.CarryoverHandler.Register(carryovers)
	}

	if deps.CarryoverHandler != nil || deps.StudentRecordHandler != nil {
		students := api.Group("/students", jwtMiddleware, staffOnly)
		if deps.CarryoverHandler != nil {
			deps.CarryoverHandler.RegisterStudentRoutes(students)
		}
		if deps.StudentRecordHandler != nil {
			deps.StudentRecordHandler.Register(students)
		}
	}
}
