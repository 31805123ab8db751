package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/realtime"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Tickets    *handlers.TicketsHandler
	Stats      *handlers.StatsHandler
	AdminUsers *handlers.AdminUsersHandler
}

// RegisterRoutes mounts all endpoints on the app.
func RegisterRoutes(app *fiber.App, h Handlers, authMW *auth.Middleware, hub *realtime.Hub, logger *zap.Logger) {
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)

	app.Use("/ws", realtime.Upgrade())
	app.Get("/ws", realtime.Handler(hub, logger))

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Get("/magic/:token", h.Auth.RedeemMagicLink)
	authGroup.Get("/me", authMW.Handle, h.Auth.Me)

	tickets := api.Group("/tickets")
	tickets.Post("/anonymous", h.Tickets.CreateAnonymous)
	tickets.Use(authMW.Handle, auth.RequireAuthenticated())
	tickets.Post("/", h.Tickets.Create)
	tickets.Get("/", h.Tickets.List)
	tickets.Get("/:id", h.Tickets.Get)
	tickets.Patch("/:id", h.Tickets.Update)
	tickets.Delete("/:id", auth.RequireAdmin(), h.Tickets.Delete)
	tickets.Post("/:id/comments", h.Tickets.AddComment)

	api.Get("/stats", authMW.Handle, auth.RequireAuthenticated(), h.Stats.Get)

	admin := api.Group("/admin", authMW.Handle, auth.RequireAdmin())
	admin.Get("/users", h.AdminUsers.List)
	admin.Patch("/users/:id", h.AdminUsers.Update)
	admin.Delete("/users/:id", h.AdminUsers.Delete)
}
