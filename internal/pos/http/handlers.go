// Package http is POS's Fiber handler/router layer.
package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/platform/authmw"
	"github.com/corebooks/core/internal/platform/httpx"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/service"
)

// Handlers bundles POS's HTTP handlers over a Service.
type Handlers struct {
	Service *service.Service
}

func bearerToken(c *fiber.Ctx) string {
	return strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
}

type saleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
	Discount  decimal.Decimal `json:"discount"`
	Tax       decimal.Decimal `json:"tax"`
}

type createSaleRequest struct {
	Lines          []saleLineRequest `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod  string            `json:"payment_method" validate:"required"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	TaxRate        *decimal.Decimal  `json:"tax_rate"`
	TenderedAmount *decimal.Decimal  `json:"tendered_amount"`
	CustomerName   string            `json:"customer_name"`
	Notes          string            `json:"notes"`
}

// CreateSale handles POST /api/v1/sales.
func (h *Handlers) CreateSale(p any, c *fiber.Ctx) error {
	req := p.(*createSaleRequest)

	profile, _ := authmw.ProfileFromFiber(c)

	lines := make([]service.SaleLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.SaleLineInput{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
			Tax:       l.Tax,
		})
	}

	in := service.CreateSaleInput{
		Lines:          lines,
		PaymentMethod:  req.PaymentMethod,
		DiscountAmount: req.DiscountAmount,
		CustomerName:   req.CustomerName,
		Notes:          req.Notes,
		BearerToken:    bearerToken(c),
	}

	if profile != nil {
		in.CashierID = profile.UserID
		in.CashierName = profile.Username
	}

	if req.TaxRate != nil {
		in.TaxRate = *req.TaxRate
		in.TaxRateSet = true
	}

	if req.TenderedAmount != nil {
		in.TenderedAmount = *req.TenderedAmount
		in.TenderedSet = true
	}

	sale, err := h.Service.CreateSale(c.UserContext(), in)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, sale)
}

func dateRange(c *fiber.Ctx) (time.Time, time.Time) {
	from, _ := time.Parse(time.RFC3339, c.Query("date_from"))
	to, _ := time.Parse(time.RFC3339, c.Query("date_to"))

	return from, to
}

// ListSales handles GET /api/v1/sales.
func (h *Handlers) ListSales(c *fiber.Ctx) error {
	page := httpx.ParsePagination(c)
	from, to := dateRange(c)

	sales, err := h.Service.ListSales(c.UserContext(), service.ListSalesInput{
		Status: domain.SyncStatus(c.Query("status")),
		From:   from,
		To:     to,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, fiber.Map{"sales": sales, "page": page.Page, "limit": page.Limit})
}

// GetSale handles GET /api/v1/sales/:saleNumber.
func (h *Handlers) GetSale(c *fiber.Ctx) error {
	sale, err := h.Service.SaleByNumber(c.UserContext(), c.Params("saleNumber"))
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, sale)
}

// VoidSale handles POST /api/v1/sales/:id/void.
func (h *Handlers) VoidSale(c *fiber.Ctx) error {
	profile, _ := authmw.ProfileFromFiber(c)

	createdBy := ""
	if profile != nil {
		createdBy = profile.UserID
	}

	record, err := h.Service.VoidSale(c.UserContext(), c.Params("id"), createdBy, bearerToken(c))
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, record)
}

type refundSaleRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// RefundSale handles POST /api/v1/sales/:id/refund.
func (h *Handlers) RefundSale(p any, c *fiber.Ctx) error {
	req := p.(*refundSaleRequest)

	profile, _ := authmw.ProfileFromFiber(c)

	createdBy := ""
	if profile != nil {
		createdBy = profile.UserID
	}

	record, err := h.Service.RefundSale(c.UserContext(), c.Params("id"), req.Amount, createdBy, bearerToken(c))
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.Created(c, record)
}

// GetSettings handles GET /api/v1/settings.
func (h *Handlers) GetSettings(c *fiber.Ctx) error {
	settings, err := h.Service.GetSettings(c.UserContext())
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, settings)
}

type updateSettingsRequest struct {
	DefaultTaxRate       decimal.Decimal `json:"default_tax_rate"`
	TaxInclusive         bool            `json:"tax_inclusive"`
	LedgerCashAccount    string          `json:"ledger_cash_account" validate:"required"`
	LedgerRevenueAccount string          `json:"ledger_revenue_account" validate:"required"`
}

// UpdateSettings handles PUT /api/v1/settings.
func (h *Handlers) UpdateSettings(p any, c *fiber.Ctx) error {
	req := p.(*updateSettingsRequest)

	settings, err := h.Service.UpdateSettings(c.UserContext(), domain.Settings{
		DefaultTaxRate:       req.DefaultTaxRate,
		TaxInclusive:         req.TaxInclusive,
		LedgerCashAccount:    req.LedgerCashAccount,
		LedgerRevenueAccount: req.LedgerRevenueAccount,
	})
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, settings)
}
