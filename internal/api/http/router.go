package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/lead-service/internal/api/http/handlers"
	"github.com/spec-kit/lead-service/internal/auth"
	"github.com/spec-kit/lead-service/internal/domain"
	"github.com/spec-kit/lead-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Leads   *handlers.LeadsHandler
	Gate    *auth.Gate
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Each protected route fixes its
// permission set here.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if reg := cfg.Metrics.Registry(); reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	adminOnly := cfg.Gate.Require(domain.RoleAdmin)

	app.Post("/login", cfg.Auth.Login)
	app.Get("/me", cfg.Gate.Require(), cfg.Auth.Me)

	users := app.Group("/users")
	users.Post("/", adminOnly, cfg.Users.Create)
	users.Get("/", adminOnly, cfg.Users.List)
	users.Patch("/:id", adminOnly, cfg.Users.Update)
	users.Delete("/:id", cfg.Gate.Require(domain.RoleAdmin, domain.RoleUser), cfg.Users.Delete)

	leads := app.Group("/leads")
	leads.Post("/", cfg.Leads.Create)
	leads.Get("/", adminOnly, cfg.Leads.List)
	leads.Get("/export", adminOnly, cfg.Leads.Export)
	leads.Get("/:id", adminOnly, cfg.Leads.Get)
	leads.Patch("/:id", adminOnly, cfg.Leads.Update)
	leads.Delete("/:id", adminOnly, cfg.Leads.Delete)
}
