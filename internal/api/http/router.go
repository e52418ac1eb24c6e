package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-service/internal/auth"
	"github.com/spec-kit/civic-service/internal/domain"
)

// RouteConfig bundles handlers and middleware for route registration.
type RouteConfig struct {
	Accounts        *handlers.AccountsHandler
	Grievances      *handlers.GrievancesHandler
	StaffGrievances *handlers.StaffGrievancesHandler
	Settlements     *handlers.SettlementsHandler
	Health          *handlers.HealthHandler
	AuthMiddleware  *auth.AuthMiddleware
}

// RegisterRoutes wires all HTTP routes.
func RegisterRoutes(app *fiber.App, rc RouteConfig) {
	app.Get("/healthz", rc.Health.Live)
	app.Get("/readyz", rc.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", rc.Accounts.Register)
	authGroup.Post("/login", rc.Accounts.Login)
	authGroup.Post("/staff/login", rc.Accounts.StaffLogin)

	grievances := api.Group("/grievances", rc.AuthMiddleware.Handle, auth.RequireCitizen())
	grievances.Post("/", rc.Grievances.Create)
	grievances.Get("/", rc.Grievances.List)
	grievances.Get("/:number", rc.Grievances.Get)
	grievances.Post("/:number/feedback", rc.Grievances.SubmitFeedback)

	settlements := api.Group("/settlements", rc.AuthMiddleware.Handle, auth.RequireCitizen())
	settlements.Post("/", rc.Settlements.Initiate)
	settlements.Get("/", rc.Settlements.List)
	settlements.Get("/:id", rc.Settlements.Get)

	// Gateway callbacks; authenticated at the edge, not by citizen token.
	api.Post("/gateway/settlements/:id/pending", rc.Settlements.MarkPending)
	api.Post("/gateway/settlements/:id/confirm", rc.Settlements.Confirm)

	staff := api.Group("/staff", rc.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/grievances", rc.StaffGrievances.List)
	staff.Get("/grievances/:number", rc.StaffGrievances.Get)
	staff.Post("/grievances/:number/status", rc.StaffGrievances.UpdateStatus)
	staff.Post("/grievances/:number/priority", rc.StaffGrievances.UpdatePriority)
	staff.Post("/settlements/:id/refund",
		auth.RequireStaffRole(domain.RoleSupervisor, domain.RoleAdmin), rc.Settlements.Refund)
	staff.Get("/reports/grievances",
		auth.RequireStaffRole(domain.RoleSupervisor, domain.RoleAdmin), rc.StaffGrievances.GrievanceReport)
	staff.Get("/reports/collections",
		auth.RequireStaffRole(domain.RoleSupervisor, domain.RoleAdmin), rc.StaffGrievances.CollectionReport)
}
