// Package http is Inventory's Fiber handler/router layer.
package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/corebooks/core/internal/inventory/domain"
	"github.com/corebooks/core/internal/inventory/service"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/httpx"
)

// Handlers bundles Inventory's HTTP handlers over a Service.
type Handlers struct {
	Service *service.Service
}

// ListProducts handles GET /api/v1/products.
func (h *Handlers) ListProducts(c *fiber.Ctx) error {
	page := httpx.ParsePagination(c)

	products, err := h.Service.ListProducts(c.UserContext(), c.Query("search"), c.Query("category"), c.Query("brand"), page.Limit, page.Offset())
	if err != nil {
		return httpx.WithError(c, apperr.ValidateInternalError(err, "Product"))
	}

	return httpx.OK(c, fiber.Map{"products": products, "page": page.Page, "limit": page.Limit})
}

// GetProduct handles GET /api/v1/products/:id.
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	id, err := httpx.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	product, err := h.Service.Product(c.UserContext(), id)
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, product)
}

// AdjustStock handles PUT /api/v1/stock/:product/:size/adjust.
func (h *Handlers) AdjustStock(c *fiber.Ctx) error {
	quantityChange, err := strconv.Atoi(c.Query("quantity_change"))
	if err != nil {
		return httpx.BadRequest(c, "CB0025", "Invalid Quantity", "quantity_change must be an integer", nil)
	}

	item, err := h.Service.Adjust(c.UserContext(), service.AdjustInput{
		ProductID:      c.Params("product"),
		Size:           c.Params("size"),
		QuantityChange: quantityChange,
		MovementType:   domain.MovementType(c.Query("movement_type")),
		ReferenceID:    c.Query("reference_id"),
	})
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, item)
}

// GetStock handles GET /api/v1/stock/:product/:size.
func (h *Handlers) GetStock(c *fiber.Ctx) error {
	item, err := h.Service.StockFor(c.UserContext(), c.Params("product"), c.Params("size"))
	if err != nil {
		return httpx.WithError(c, err)
	}

	return httpx.OK(c, item)
}

// ListLowStock handles GET /api/v1/stock/low.
func (h *Handlers) ListLowStock(c *fiber.Ctx) error {
	items, err := h.Service.LowStock(c.UserContext())
	if err != nil {
		return httpx.WithError(c, apperr.ValidateInternalError(err, "StockItem"))
	}

	return httpx.OK(c, fiber.Map{"items": items})
}

// ListStockMovements handles GET /api/v1/stock/:product/:size/movements.
func (h *Handlers) ListStockMovements(c *fiber.Ctx) error {
	page := httpx.ParsePagination(c)

	movements, err := h.Service.Stock.Movements(c.UserContext(), c.Params("product"), c.Params("size"), page.Limit, page.Offset())
	if err != nil {
		return httpx.WithError(c, apperr.ValidateInternalError(err, "StockMovement"))
	}

	return httpx.OK(c, fiber.Map{"movements": movements, "page": page.Page, "limit": page.Limit})
}
