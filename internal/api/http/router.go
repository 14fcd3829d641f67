package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.RegisterCustomer)

	authenticated := cfg.AuthMiddleware.Handle

	users := app.Group("/users", authenticated, auth.RequireAnyRole())
	users.Get("/me", cfg.Auth.Me)

	comments := app.Group("/tickets", authenticated, auth.RequireAnyRole())
	comments.Get("/:ticketNumber/comments", cfg.Tickets.ListComments)

	customer := app.Group("/customer/tickets", authenticated, auth.RequireRole(domain.RoleCustomer))
	customer.Post("/", cfg.Tickets.CreateTicket)
	customer.Get("/", cfg.Tickets.ListTickets)
	customer.Put("/", cfg.Tickets.UpdateTicket)

	agent := app.Group("/agent/tickets", authenticated, auth.RequireRole(domain.RoleEmployee))
	agent.Get("/", cfg.AgentTickets.ListAssigned)
	agent.Put("/", cfg.Tickets.UpdateTicket)

	admin := app.Group("/admin", authenticated, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users/employees", cfg.Auth.RegisterEmployee)
	admin.Post("/users/admins", cfg.Auth.RegisterAdmin)
	admin.Get("/tickets", cfg.AdminTickets.ListByStatus)
	admin.Get("/tickets/active/count", cfg.AdminTickets.CountActive)
	admin.Get("/tickets/department/:department", cfg.AdminTickets.ListByDepartment)
	admin.Put("/tickets/:id/assign/:agentId", cfg.AdminTickets.Assign)
}
