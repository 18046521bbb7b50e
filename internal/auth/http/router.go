package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/auth/jwtutil"
	"github.com/corebooks/core/internal/auth/service"
	"github.com/corebooks/core/internal/platform/httpx"
	"github.com/corebooks/core/internal/platform/logging"
)

// NewRouter builds Auth's Fiber app with its full middleware chain and
// route table.
func NewRouter(svc *service.Service, minter *jwtutil.Minter, logger logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(httpx.WithRecover())
	app.Use(httpx.WithCorrelationID())
	app.Use(httpx.WithCORS())
	app.Use(httpx.WithAccessLog(logger))

	app.Get("/health", func(c *fiber.Ctx) error { return httpx.OK(c, fiber.Map{"status": "ok"}) })

	h := &Handlers{Service: svc}

	v1 := app.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", httpx.WithBody(loginRequest{}, h.Login))
	auth.Post("/refresh", httpx.WithBody(refreshRequest{}, h.Refresh))

	protected := requireAccessToken(minter)

	v1.Get("/profile", protected, h.Profile)
	auth.Post("/change-password", protected, httpx.WithBody(changePasswordRequest{}, h.ChangePassword))

	auth.Post("/register", protected, requirePermission(domain.ResourceUser+":"+domain.ActionAdmin), httpx.WithBody(registerUserRequest{}, h.RegisterUser))

	admin := auth.Group("/users", protected, requirePermission(domain.ResourceUser+":"+domain.ActionAdmin))
	admin.Get("/", h.ListUsers)
	admin.Put("/:id/role", httpx.WithBody(setRoleRequest{}, h.SetRole))

	return app
}
