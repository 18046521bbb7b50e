package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/ledger/service"
	"github.com/corebooks/core/internal/platform/authmw"
	"github.com/corebooks/core/internal/platform/httpx"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/permission"
)

// NewRouter builds Ledger's Fiber app. Every protected route re-verifies
// the caller's bearer token against Auth via authmw rather than trusting a
// locally parsed JWT, since Ledger is a downstream resource server.
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

	accounts := v1.Group("/accounts")
	accounts.Post("/", authmw.RequirePermission(permission.ResourceAccount+":"+permission.ActionCreate), httpx.WithBody(createAccountRequest{}, h.CreateAccount))
	accounts.Get("/", authmw.RequirePermission(permission.ResourceAccount+":"+permission.ActionList), h.ListAccounts)

	transactions := v1.Group("/transactions")
	transactions.Post("/", authmw.RequirePermission(permission.ResourceTransaction+":"+permission.ActionCreate), httpx.WithBody(postTransactionRequest{}, h.PostTransaction))
	transactions.Get("/", authmw.RequirePermission(permission.ResourceTransaction+":"+permission.ActionList), h.ListTransactions)
	transactions.Get("/by-reference", authmw.RequirePermission(permission.ResourceTransaction+":"+permission.ActionRead), h.FindTransactionByReference)
	transactions.Get("/:id", authmw.RequirePermission(permission.ResourceTransaction+":"+permission.ActionRead), h.GetTransaction)

	v1.Get("/reports/:kind", authmw.RequirePermission(permission.ResourceFinancial+":"+permission.ActionRead), h.GetReport)

	periods := v1.Group("/periods", authmw.RequirePermission(permission.ResourcePeriod+":"+permission.ActionAdmin))
	periods.Post("/", httpx.WithBody(createPeriodRequest{}, h.CreatePeriod))
	periods.Post("/:id/close", h.ClosePeriod)
	periods.Post("/:id/lock", h.LockPeriod)
	periods.Post("/:id/reopen", h.ReopenPeriod)

	return app
}
