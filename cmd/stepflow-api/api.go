// Package main provides the Stepflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/stepflow-io/stepflow/pkg/dispatch"
	"github.com/stepflow-io/stepflow/pkg/engine"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/registry"
	"github.com/stepflow-io/stepflow/pkg/services"
	"github.com/stepflow-io/stepflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	dispatcher  dispatch.Dispatcher
	coordinator *engine.Coordinator
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	reg *registry.Registry,
	dispatcher dispatch.Dispatcher,
	coordinator *engine.Coordinator,
) *API {
	return &API{
		logger:      logger,
		persistence: store,
		registry:    reg,
		dispatcher:  dispatcher,
		coordinator: coordinator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.registry)
	templateService := services.NewTemplate(a.persistence)
	gate := engine.NewApprovalGate(a.logger, a.persistence.ApprovalRepository(), a.coordinator)

	handlers := web.NewAPIHandlers(workflowService, templateService, a.coordinator, gate, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/validate-graph", handlers.ValidateGraph)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Put("/:id/graph", handlers.ReplaceGraph)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/pause", handlers.PauseWorkflow)
	w.Post("/:id/archive", handlers.ArchiveWorkflow)
	w.Post("/:id/trigger", handlers.TriggerWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)
	w.Get("/:id/metrics", handlers.GetWorkflowMetrics)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/logs", handlers.GetExecutionLogs)
	e.Get("/:id/approvals", handlers.GetExecutionApprovals)
	e.Post("/:id/cancel", handlers.CancelExecution)
	e.Post("/:id/retry", handlers.RetryExecution)

	ap := app.Group("/approvals")
	ap.Get("/", handlers.GetPendingApprovals)
	ap.Post("/:id/approve", handlers.ApproveApproval)
	ap.Post("/:id/reject", handlers.RejectApproval)

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Post("/", handlers.PublishTemplate)
	t.Get("/:id", handlers.GetTemplate)
	t.Post("/:id/instantiate", handlers.InstantiateTemplate)

	s := app.Group("/schedules")
	s.Get("/", handlers.GetSchedules)
	s.Post("/", handlers.CreateSchedule)
	s.Get("/:id", handlers.GetSchedule)
	s.Patch("/:id", handlers.UpdateSchedule)
	s.Delete("/:id", handlers.DeleteSchedule)

	i := app.Group("/integrations")
	i.Get("/", handlers.GetIntegrations)
	i.Post("/", handlers.CreateIntegration)
	i.Get("/:id", handlers.GetIntegration)
	i.Put("/:id", handlers.UpdateIntegration)
	i.Delete("/:id", handlers.DeleteIntegration)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
