package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/deliverynote-service/internal/api/http/handlers"
	"github.com/spec-kit/deliverynote-service/internal/auth"
	"github.com/spec-kit/deliverynote-service/internal/domain"
	"github.com/spec-kit/deliverynote-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Clients        *handlers.ClientsHandler
	Projects       *handlers.ProjectsHandler
	DeliveryNotes  *handlers.DeliveryNotesHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")
	requireAuth := cfg.AuthMiddleware.Handle

	authGroup := api.Group("/auth")
	limit := cfg.RateLimiter.Handle
	authGroup.Post("/register", limit, cfg.Auth.Register)
	authGroup.Post("/login", limit, cfg.Auth.Login)
	authGroup.Post("/password/forgot", limit, cfg.Auth.ForgotPassword)
	authGroup.Post("/password/reset", limit, cfg.Auth.ResetPassword)

	authGroup.Post("/validate-email", requireAuth, cfg.Auth.ValidateEmail)
	authGroup.Get("/me", requireAuth, cfg.Auth.Me)
	authGroup.Put("/onboarding", requireAuth, cfg.Auth.Onboarding)
	authGroup.Patch("/logo", requireAuth, cfg.Auth.UploadLogo)
	authGroup.Post("/logout", requireAuth, cfg.Auth.Logout)
	authGroup.Delete("/", requireAuth, auth.RequireRole(domain.RoleAdmin, domain.RoleUser), cfg.Auth.DeleteAccount)
	authGroup.Post("/invite", requireAuth, auth.RequireRole(domain.RoleAdmin), cfg.Auth.InviteGuest)
	authGroup.Patch("/:id/role", requireAuth, auth.RequireRole(domain.RoleAdmin), cfg.Auth.UpdateRole)

	clients := api.Group("/client", requireAuth)
	clients.Post("/", cfg.Clients.Create)
	clients.Get("/", cfg.Clients.List)
	clients.Get("/archived/list", cfg.Clients.ListArchived)
	clients.Get("/:id", cfg.Clients.Get)
	clients.Put("/:id", cfg.Clients.Update)
	clients.Patch("/:id/archive", cfg.Clients.Archive)
	clients.Patch("/:id/restore", cfg.Clients.Restore)
	clients.Delete("/:id", cfg.Clients.Delete)

	projects := api.Group("/project", requireAuth)
	projects.Post("/", cfg.Projects.Create)
	projects.Get("/", cfg.Projects.List)
	projects.Get("/archived/list", cfg.Projects.ListArchived)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Put("/:id", cfg.Projects.Update)
	projects.Patch("/:id/archive", cfg.Projects.Archive)
	projects.Patch("/:id/restore", cfg.Projects.Restore)
	projects.Delete("/:id", cfg.Projects.Delete)

	notes := api.Group("/deliverynote", requireAuth)
	notes.Post("/", cfg.DeliveryNotes.Create)
	notes.Get("/", cfg.DeliveryNotes.List)
	notes.Get("/archived/list", cfg.DeliveryNotes.ListArchived)
	notes.Get("/pdf/:id", cfg.DeliveryNotes.PDF)
	notes.Get("/:id", cfg.DeliveryNotes.Get)
	notes.Put("/:id", cfg.DeliveryNotes.Update)
	notes.Patch("/:id/archive", cfg.DeliveryNotes.Archive)
	notes.Patch("/:id/restore", cfg.DeliveryNotes.Restore)
	notes.Post("/:id/sign", cfg.DeliveryNotes.Sign)
	notes.Delete("/:id", cfg.DeliveryNotes.Delete)
}
