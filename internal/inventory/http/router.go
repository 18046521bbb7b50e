package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/inventory/service"
	"github.com/corebooks/core/internal/platform/authmw"
	"github.com/corebooks/core/internal/platform/httpx"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/permission"
)

// NewRouter builds Inventory's Fiber app. Every protected route re-verifies
// the caller's bearer token against Auth via authmw, since Inventory is a
// downstream resource server.
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

	products := v1.Group("/products")
	products.Get("/", authmw.RequirePermission(permission.ResourceProduct+":"+permission.ActionList), h.ListProducts)
	products.Get("/:id", authmw.RequirePermission(permission.ResourceProduct+":"+permission.ActionRead), h.GetProduct)

	stock := v1.Group("/stock")
	stock.Get("/low", authmw.RequirePermission(permission.ResourceStock+":"+permission.ActionRead), h.ListLowStock)
	stock.Get("/:product/:size", authmw.RequirePermission(permission.ResourceStock+":"+permission.ActionRead), h.GetStock)
	stock.Get("/:product/:size/movements", authmw.RequirePermission(permission.ResourceStock+":"+permission.ActionRead), h.ListStockMovements)
	stock.Put("/:product/:size/adjust", authmw.RequirePermission(permission.ResourceStock+":"+permission.ActionUpdate), h.AdjustStock)

	return app
}
