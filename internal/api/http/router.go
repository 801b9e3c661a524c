package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensupport/helpdesk/internal/api/http/handlers"
	"github.com/opensupport/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Tasks          *handlers.TasksHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.Middleware
	Registry       *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	// Public intake. Token is optional so authenticated callers get
	// their identity attached, but anonymous submissions work too.
	tickets := api.Group("/tickets", cfg.AuthMiddleware.Optional)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/updates", cfg.Tickets.AddComment)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Tickets.DownloadAttachment)

	staff := api.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Get("/tickets", cfg.StaffTickets.ListTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetTicket)
	staff.Patch("/tickets/:id/status", cfg.StaffTickets.UpdateStatus)
	staff.Post("/tickets/:id/updates", cfg.StaffTickets.AddComment)

	staff.Post("/tasks", cfg.Tasks.CreateTask)
	staff.Get("/tasks", cfg.Tasks.ListTasks)
	staff.Get("/tasks/:id", cfg.Tasks.GetTask)
	staff.Put("/tasks/:id", cfg.Tasks.UpdateTask)
	staff.Patch("/tasks/:id/status", cfg.Tasks.UpdateStatus)
	staff.Delete("/tasks/:id", cfg.Tasks.DeleteTask)

	staff.Get("/users", cfg.Users.ListUsers)
}
