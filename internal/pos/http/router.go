package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/platform/authmw"
	"github.com/corebooks/core/internal/platform/httpx"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/permission"
	"github.com/corebooks/core/internal/pos/service"
)

// NewRouter builds POS's Fiber app. Every protected route re-verifies the
// caller's bearer token against Auth via authmw, since POS is a downstream
// resource server.
func NewRouter(svc *service.Service, authBaseURL string, logger logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(httpx.WithRecover())
	app.Use(httpx.WithCorrelationID())
	app.Use(httpx.WithCORS())
	app.Use(httpx.WithAccessLog(logger))

	app.Get("/health", func(c *fiber.Ctx) error { return httpx.OK(c, fiber.Map{"status": "ok"}) })

	h := &Handlers{Service: svc}
	mw := authmw.New(authBaseURL, 5*time.Second)
	protected := mw.Protect()

	v1 := app.Group("/api/v1", protected)

	sales := v1.Group("/sales")
	sales.Post("/", authmw.RequirePermission(permission.ResourceSale+":"+permission.ActionCreate), httpx.WithBody(createSaleRequest{}, h.CreateSale))
	sales.Get("/", authmw.RequirePermission(permission.ResourceSale+":"+permission.ActionList), h.ListSales)
	sales.Get("/:saleNumber", authmw.RequirePermission(permission.ResourceSale+":"+permission.ActionRead), h.GetSale)
	sales.Post("/:id/void", authmw.RequireRole(permission.RoleManager), h.VoidSale)
	sales.Post("/:id/refund", authmw.RequireRole(permission.RoleManager), httpx.WithBody(refundSaleRequest{}, h.RefundSale))

	settings := v1.Group("/settings")
	settings.Get("/", h.GetSettings)
	settings.Put("/", authmw.RequireRole(permission.RoleAdmin), httpx.WithBody(updateSettingsRequest{}, h.UpdateSettings))

	return app
}
