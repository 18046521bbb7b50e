// Package service implements the POS use cases: the sale pipeline (compute
// totals, decrement stock, persist, enqueue for Ledger publication) and the
// manager-gated void/refund workflow.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/broker"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/platform/money"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/inventoryclient"
	"github.com/corebooks/core/internal/pos/ledgerclient"
)

// SaleSubject is the broker subject a persisted sale is enqueued on for the
// worker to publish to Ledger.
const SaleSubject = "pos.sale"

// RegisterNumber is the till identifier sale numbers are stamped with. This
// deployment runs a single register; a multi-till deployment would thread
// this through from the request instead of hardcoding it.
const RegisterNumber = "01"

// InventoryClient is the subset of inventoryclient.Client the sale pipeline
// and void/refund workflow call, narrowed to an interface so tests can
// substitute a fake.
type InventoryClient interface {
	FindProduct(ctx context.Context, bearerToken, productID string) (*inventoryclient.Product, error)
	Adjust(ctx context.Context, bearerToken, productID, size string, quantityChange int, movementType, referenceID string) error
}

// LedgerClient is the subset of ledgerclient.Client the void/refund workflow
// calls. The worker depends on the same interface.
type LedgerClient interface {
	PostTransaction(ctx context.Context, bearerToken string, in ledgerclient.PostTransactionRequest) (string, error)
	FindByReference(ctx context.Context, bearerToken, source, reference string) (string, error)
}

// Service wires the POS repositories and outbound clients into the sale
// pipeline and the void/refund workflow.
type Service struct {
	Sales     domain.SaleRepository
	Voids     domain.VoidRepository
	Settings  domain.SettingsRepository
	Inventory InventoryClient
	Ledger    LedgerClient
	Broker    broker.Broker
	Logger    logging.Logger
}

// SaleLineInput is one line item of a CreateSale request.
type SaleLineInput struct {
	ProductID string
	SKU       string
	Name      string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
}

// CreateSaleInput describes a till sale to ring up.
type CreateSaleInput struct {
	Lines          []SaleLineInput
	PaymentMethod  string
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal
	TaxRateSet     bool
	TenderedAmount decimal.Decimal
	TenderedSet    bool
	CustomerName   string
	Notes          string
	CashierID      string
	CashierName    string
	// BearerToken is forwarded to Inventory (synchronously, for the stock
	// decrement) and embedded in the broker message so the worker posts to
	// Ledger as the same caller.
	BearerToken string
}

// CreateSale runs the full pipeline: validates and computes totals,
// decrements stock line by line (aborting with no persistence on the first
// failure), persists the sale pending, and enqueues it for Ledger
// publication.
func (s *Service) CreateSale(ctx context.Context, in CreateSaleInput) (*domain.Sale, error) {
	if len(in.Lines) == 0 {
		return nil, apperr.ValidationError{Code: "CB0015", Title: "Empty Sale", Message: "a sale requires at least one line item"}
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Settings")
	}

	if err := s.validateSizes(ctx, in); err != nil {
		return nil, err
	}

	items, subtotal := computeLines(in.Lines)

	taxRate := settings.DefaultTaxRate
	if in.TaxRateSet {
		taxRate = in.TaxRate
	}

	taxAmount := decimal.Zero
	if !settings.TaxInclusive {
		taxAmount = money.Round2(subtotal.Mul(taxRate))
	}

	discountAmount := money.Round2(in.DiscountAmount)
	total := money.Round2(subtotal.Add(taxAmount).Sub(discountAmount))

	changeDue := decimal.Zero
	if in.TenderedSet {
		if in.TenderedAmount.LessThan(total) {
			return nil, apperr.ValidationError{Code: "CB0026", Title: "Insufficient Tender", Message: "tendered amount is below the sale total"}
		}

		changeDue = money.Round2(in.TenderedAmount.Sub(total))
	}

	now := time.Now().UTC()
	saleNumber := idgen.SaleNumber(RegisterNumber, now)

	// Stock is decremented before the sale is persisted: if Inventory is
	// unreachable the sale must never have existed, so overselling under a
	// network partition is impossible.
	if err := s.decrementStock(ctx, in); err != nil {
		return nil, err
	}

	sale := &domain.Sale{
		ID:             idgen.New(),
		SaleNumber:     saleNumber,
		CustomerName:   in.CustomerName,
		Notes:          in.Notes,
		CashierID:      in.CashierID,
		CashierName:    in.CashierName,
		PaymentMethod:  in.PaymentMethod,
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		Total:          total,
		TenderedAmount: in.TenderedAmount,
		ChangeDue:      changeDue,
		Status:         domain.SyncPending,
		Items:          items,
	}

	persisted, err := s.Sales.Create(ctx, sale)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Sale")
	}

	s.enqueue(ctx, persisted, in.BearerToken)

	return persisted, nil
}

// validateSizes checks every line against the size-required-at-validation
// rule: a product flagged has_size_variants must carry a line size.
// Products without size variants may omit it.
func (s *Service) validateSizes(ctx context.Context, in CreateSaleInput) error {
	for i, line := range in.Lines {
		if line.Size != "" {
			continue
		}

		product, err := s.Inventory.FindProduct(ctx, in.BearerToken, line.ProductID)
		if err != nil {
			return apperr.RemoteUnavailableError{Code: "CB0032", Title: "Inventory Unavailable", Message: fmt.Sprintf("could not verify product %s: %v", line.ProductID, err)}
		}

		if product.HasSizeVariants {
			return apperr.ValidationError{
				Code:    "CB0025",
				Title:   "Size Required",
				Message: fmt.Sprintf("line %d: size is required for this product", i),
				Fields:  map[string]string{"line": fmt.Sprintf("%d", i)},
			}
		}
	}

	return nil
}

// unsizedStock is the size stock is tracked under for a product with no
// size variants, matching the fixture catalog's convention.
const unsizedStock = "ONE"

func (s *Service) decrementStock(ctx context.Context, in CreateSaleInput) error {
	for _, line := range in.Lines {
		size := line.Size
		if size == "" {
			size = unsizedStock
		}

		reference := "POSSALE-" + line.ProductID

		if err := s.Inventory.Adjust(ctx, in.BearerToken, line.ProductID, size, -line.Quantity, "sale", reference); err != nil {
			return apperr.RemoteUnavailableError{Code: "CB0032", Title: "Inventory Unavailable", Message: fmt.Sprintf("stock decrement failed for product %s: %v", line.ProductID, err)}
		}
	}

	return nil
}

func computeLines(in []SaleLineInput) ([]domain.SaleItem, decimal.Decimal) {
	items := make([]domain.SaleItem, 0, len(in))
	subtotal := decimal.Zero

	for _, line := range in {
		lineTotal := money.Round2(decimal.NewFromInt(int64(line.Quantity)).Mul(line.UnitPrice).Sub(line.Discount).Add(line.Tax))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, domain.SaleItem{
			ProductID: line.ProductID,
			SKU:       line.SKU,
			Name:      line.Name,
			Size:      line.Size,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			Tax:       line.Tax,
			LineTotal: lineTotal,
		})
	}

	return items, money.Round2(subtotal)
}

// enqueue publishes the sale for the worker to pick up. A publish failure
// is logged, not surfaced: the sale is already durably pending, and the
// worker's boot-time rescan picks up anything never delivered.
func (s *Service) enqueue(ctx context.Context, sale *domain.Sale, bearerToken string) {
	if s.Broker == nil {
		return
	}

	body, err := json.Marshal(domain.SaleMessage{SaleID: sale.ID, SaleNumber: sale.SaleNumber, AuthToken: bearerToken})
	if err != nil {
		s.Logger.Errorf("sale %s: encode broker message: %v", sale.SaleNumber, err)
		return
	}

	if err := s.Broker.Publish(ctx, broker.Message{ID: sale.ID, Subject: SaleSubject, Body: body}); err != nil {
		s.Logger.Errorf("sale %s: enqueue failed, relying on boot rescan: %v", sale.SaleNumber, err)
	}
}

// ListSalesInput filters a sale listing.
type ListSalesInput struct {
	Status domain.SyncStatus
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// ListSales returns a page of sales.
func (s *Service) ListSales(ctx context.Context, in ListSalesInput) ([]*domain.Sale, error) {
	sales, err := s.Sales.List(ctx, in.Status, in.From, in.To, in.Limit, in.Offset)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Sale")
	}

	return sales, nil
}

// SaleByNumber looks up one sale with its items.
func (s *Service) SaleByNumber(ctx context.Context, saleNumber string) (*domain.Sale, error) {
	return s.Sales.FindBySaleNumber(ctx, saleNumber)
}

// GetSettings returns the singleton till configuration.
func (s *Service) GetSettings(ctx context.Context) (*domain.Settings, error) {
	return s.Settings.Get(ctx)
}

// UpdateSettings overwrites the singleton till configuration.
func (s *Service) UpdateSettings(ctx context.Context, in domain.Settings) (*domain.Settings, error) {
	return s.Settings.Update(ctx, &in)
}
