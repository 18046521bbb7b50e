// Package service implements the Inventory use cases: catalog reads and
// stock adjustment with its low-stock feed.
package service

import (
	"context"

	"github.com/corebooks/core/internal/inventory/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/logging"
)

// Service wires the Inventory repositories into the catalog/stock use
// cases.
type Service struct {
	Products domain.ProductRepository
	Stock    domain.StockRepository
	Logger   logging.Logger

	// LowStockFeedEnabled gates whether Adjust logs when a movement pushes
	// an item at or below its reorder level. Defaults to true when the
	// Service is built via New.
	LowStockFeedEnabled bool
}

// New builds a Service with the low-stock feed enabled by default.
func New(products domain.ProductRepository, stock domain.StockRepository, logger logging.Logger) *Service {
	return &Service{Products: products, Stock: stock, Logger: logger, LowStockFeedEnabled: true}
}

// Product returns a single catalog entry.
func (s *Service) Product(ctx context.Context, id string) (*domain.Product, error) {
	return s.Products.FindByID(ctx, id)
}

// ListProducts returns a filtered, paginated page of the catalog.
func (s *Service) ListProducts(ctx context.Context, search, category, brand string, limit, offset int) ([]*domain.Product, error) {
	return s.Products.List(ctx, search, category, brand, limit, offset)
}

// StockFor returns the current stock item for (productID, size).
func (s *Service) StockFor(ctx context.Context, productID, size string) (*domain.StockItem, error) {
	return s.Stock.Find(ctx, productID, size)
}

// LowStock returns every item at or below its reorder level.
func (s *Service) LowStock(ctx context.Context) ([]*domain.StockItem, error) {
	return s.Stock.ListLow(ctx)
}

// AdjustInput describes one stock adjustment request.
type AdjustInput struct {
	ProductID      string
	Size           string
	QuantityChange int
	MovementType   domain.MovementType
	ReferenceID    string
}

// Adjust locates the (product, size) item, rejects if it does not exist,
// and applies the requested delta, recording one StockMovement. A resulting
// negative quantity is permitted — it is not this layer's job to prevent
// overselling, only to keep the audit trail consistent. When the item
// lands at or below its reorder level and the low-stock feed is enabled,
// one log line is emitted.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (*domain.StockItem, error) {
	if in.Size == "" {
		return nil, apperr.ValidationError{Code: "CB0025", Title: "Size Required", Message: "size is required for a stock adjustment"}
	}

	if !in.MovementType.IsValid() {
		return nil, apperr.ValidationError{Code: "CB0017", Title: "Invalid Movement Type", Message: "movement_type must be one of purchase, sale, adjustment, return"}
	}

	item, err := s.Stock.Adjust(ctx, in.ProductID, in.Size, in.QuantityChange, in.MovementType, in.ReferenceID)
	if err != nil {
		return nil, err
	}

	if s.LowStockFeedEnabled && item.IsLowStock() && s.Logger != nil {
		s.Logger.Infof("stock item %s/%s at %d is at or below its reorder level of %d", item.ProductID, item.Size, item.Quantity, item.ReorderLevel)
	}

	return item, nil
}
