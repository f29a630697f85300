package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Bulk           *handlers.BulkHandler
	Searches       *handlers.SearchesHandler
	Reports        *handlers.ReportsHandler
	Tracking       *handlers.TrackingHandler
	AuthMiddleware *auth.AuthMiddleware
	Helpdesk       config.HelpdeskConfig
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireHelpdeskStaff(cfg.Helpdesk))
	staff.Get("/me", cfg.Auth.Me)
	staff.Post("/me/password", cfg.Auth.ChangePassword)
	staff.Put("/me/settings", cfg.Auth.UpdateSettings)
	staff.Get("/owners", cfg.Tickets.OwnerCandidates)

	tickets := staff.Group("/tickets")
	tickets.Post("/bulk/assign", cfg.Bulk.Assign)
	tickets.Post("/bulk/close", cfg.Bulk.Close)
	tickets.Post("/bulk/delete", cfg.Bulk.Delete)

	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/update", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/take", cfg.Tickets.TakeTicket)
	tickets.Put("/:id/followups/:followupID", cfg.Tickets.EditFollowUp)
	tickets.Delete("/:id/followups/:followupID", cfg.Tickets.DeleteFollowUp)
	tickets.Delete("/:id/attachments/:attachmentID", cfg.Tickets.DeleteAttachment)
	tickets.Get("/:id/cc", cfg.Tickets.ListCCs)
	tickets.Post("/:id/cc", cfg.Tickets.AddCC)
	tickets.Delete("/:id/cc/:ccID", cfg.Tickets.RemoveCC)
	tickets.Post("/:id/dependencies", cfg.Tickets.AddDependency)
	tickets.Delete("/:id/dependencies/:dependencyID", cfg.Tickets.RemoveDependency)
	tickets.Post("/:id/time", cfg.Tracking.AddTime)
	tickets.Put("/:id/time/:trackID", cfg.Tracking.UpdateTime)
	tickets.Delete("/:id/time/:trackID", cfg.Tracking.DeleteTime)
	tickets.Post("/:id/money", cfg.Tracking.AddMoney)
	tickets.Put("/:id/money/:trackID", cfg.Tracking.UpdateMoney)
	tickets.Delete("/:id/money/:trackID", cfg.Tracking.DeleteMoney)

	searches := staff.Group("/searches")
	searches.Get("/", cfg.Searches.List)
	searches.Post("/", cfg.Searches.Create)
	searches.Delete("/:id", cfg.Searches.Delete)
	searches.Post("/:id/share", cfg.Searches.ToggleShared)
	searches.Post("/:id/default", cfg.Searches.SetDefault)

	staff.Get("/reports", cfg.Reports.Index)
	staff.Get("/reports/basic", cfg.Reports.Basic)
	staff.Get("/reports/:name", cfg.Reports.Run)
}
