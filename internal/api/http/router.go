package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/district-helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/district-helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	Intake         *handlers.IntakeHandler
	Directory      *handlers.DirectoryHandler
	Catalog        *handlers.CatalogHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Intake endpoints are unauthenticated;
// everything under /staff, /tickets, /directory, and /catalog requires a
// staff token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	authProtected.Get("/me", cfg.Staff.Me)
	authProtected.Post("/password/change", cfg.Staff.ChangePassword)

	intakeGroup := app.Group("/intake")
	intakeGroup.Post("/conversations", cfg.Intake.StartConversation)
	intakeGroup.Get("/conversations/:id", cfg.Intake.GetConversation)
	intakeGroup.Post("/conversations/:id/messages", cfg.Intake.PostMessage)
	intakeGroup.Get("/kb/search", cfg.Intake.SearchArticles)

	app.Get("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaff(), cfg.Staff.List)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/key/:key", cfg.Tickets.GetTicketByKey)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/assignee", cfg.Tickets.Assign)

	directoryGroup := app.Group("/directory", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	directoryGroup.Get("/search", cfg.Directory.Search)

	catalog := app.Group("/catalog", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	catalog.Get("/categories", cfg.Catalog.ListCategories)
	catalog.Get("/articles", cfg.Catalog.ListArticles)

	catalogAdmin := catalog.Group("", auth.RequireSuperAdmin())
	catalogAdmin.Post("/categories", cfg.Catalog.CreateCategory)
	catalogAdmin.Put("/categories/:id", cfg.Catalog.UpdateCategory)
	catalogAdmin.Post("/articles", cfg.Catalog.CreateArticle)
	catalogAdmin.Put("/articles/:id", cfg.Catalog.UpdateArticle)
}
