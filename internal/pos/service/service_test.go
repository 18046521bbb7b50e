package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/broker"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/logging"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/inventoryclient"
	"github.com/corebooks/core/internal/pos/ledgerclient"
)

type fakeSales struct {
	byID         map[string]*domain.Sale
	byNumber     map[string]*domain.Sale
	createCalled int
}

func newFakeSales() *fakeSales {
	return &fakeSales{byID: map[string]*domain.Sale{}, byNumber: map[string]*domain.Sale{}}
}

func (f *fakeSales) Create(_ context.Context, s *domain.Sale) (*domain.Sale, error) {
	f.createCalled++
	cp := *s
	cp.CreatedAt = time.Unix(0, 0).UTC()
	f.byID[cp.ID] = &cp
	f.byNumber[cp.SaleNumber] = &cp

	return &cp, nil
}

func (f *fakeSales) FindByID(_ context.Context, id string) (*domain.Sale, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Sale", Code: "CB0027"}
}

func (f *fakeSales) FindBySaleNumber(_ context.Context, saleNumber string) (*domain.Sale, error) {
	if s, ok := f.byNumber[saleNumber]; ok {
		return s, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Sale", Code: "CB0027"}
}

func (f *fakeSales) List(_ context.Context, _ domain.SyncStatus, _, _ time.Time, _, _ int) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, s := range f.byID {
		out = append(out, s)
	}

	return out, nil
}

func (f *fakeSales) ListPendingOrFailed(_ context.Context) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, s := range f.byID {
		if s.Status.CanRetry() {
			out = append(out, s)
		}
	}

	return out, nil
}

func (f *fakeSales) MarkSynced(_ context.Context, id, ledgerEntryID string) error {
	s, ok := f.byID[id]
	if !ok {
		return apperr.EntityNotFoundError{EntityType: "Sale", Code: "CB0027"}
	}

	s.Status = domain.SyncSynced
	s.LedgerEntryID = ledgerEntryID

	return nil
}

func (f *fakeSales) MarkFailed(_ context.Context, id string) error {
	s, ok := f.byID[id]
	if !ok {
		return apperr.EntityNotFoundError{EntityType: "Sale", Code: "CB0027"}
	}

	s.Status = domain.SyncFailed

	return nil
}

type fakeVoids struct {
	bySaleID map[string][]*domain.VoidRecord
}

func newFakeVoids() *fakeVoids {
	return &fakeVoids{bySaleID: map[string][]*domain.VoidRecord{}}
}

func (f *fakeVoids) Create(_ context.Context, v *domain.VoidRecord) (*domain.VoidRecord, error) {
	cp := *v
	if cp.ID == "" {
		cp.ID = idgen.New()
	}
	cp.CreatedAt = time.Unix(0, 0).UTC()
	f.bySaleID[cp.SaleID] = append(f.bySaleID[cp.SaleID], &cp)

	return &cp, nil
}

func (f *fakeVoids) FindBySaleID(_ context.Context, saleID string) ([]*domain.VoidRecord, error) {
	return f.bySaleID[saleID], nil
}

type fakeSettings struct {
	settings *domain.Settings
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: &domain.Settings{
		DefaultTaxRate:       decimal.Zero,
		TaxInclusive:         false,
		LedgerCashAccount:    "Cash",
		LedgerRevenueAccount: "Sales Revenue",
	}}
}

func (f *fakeSettings) Get(_ context.Context) (*domain.Settings, error) {
	cp := *f.settings
	return &cp, nil
}

func (f *fakeSettings) Update(_ context.Context, s *domain.Settings) (*domain.Settings, error) {
	cp := *s
	f.settings = &cp

	return &cp, nil
}

type stockCall struct {
	productID      string
	size           string
	quantityChange int
	movementType   string
	referenceID    string
}

type fakeInventory struct {
	products     map[string]*inventoryclient.Product
	adjustErr    error
	adjustCalls  []stockCall
	findProdErr  error
	findProdHits int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{products: map[string]*inventoryclient.Product{}}
}

func (f *fakeInventory) FindProduct(_ context.Context, _, productID string) (*inventoryclient.Product, error) {
	f.findProdHits++

	if f.findProdErr != nil {
		return nil, f.findProdErr
	}

	if p, ok := f.products[productID]; ok {
		return p, nil
	}

	return &inventoryclient.Product{ID: productID}, nil
}

func (f *fakeInventory) Adjust(_ context.Context, _, productID, size string, quantityChange int, movementType, referenceID string) error {
	f.adjustCalls = append(f.adjustCalls, stockCall{productID, size, quantityChange, movementType, referenceID})

	return f.adjustErr
}

type fakeLedger struct {
	postErr     error
	postCalls   []ledgerclient.PostTransactionRequest
	byReference map[string]string
	findRefErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byReference: map[string]string{}}
}

func (f *fakeLedger) PostTransaction(_ context.Context, _ string, in ledgerclient.PostTransactionRequest) (string, error) {
	f.postCalls = append(f.postCalls, in)

	if f.postErr != nil {
		return "", f.postErr
	}

	id := idgen.New()
	f.byReference[in.Reference] = id

	return id, nil
}

func (f *fakeLedger) FindByReference(_ context.Context, _, _, reference string) (string, error) {
	if f.findRefErr != nil {
		return "", f.findRefErr
	}

	return f.byReference[reference], nil
}

type fakeBroker struct {
	published  []broker.Message
	publishErr error
}

func (f *fakeBroker) Publish(_ context.Context, msg broker.Message) error {
	f.published = append(f.published, msg)
	return f.publishErr
}

func (f *fakeBroker) Consume(_ context.Context, _ string, _ broker.Handler) error { return nil }
func (f *fakeBroker) Close() error                                               { return nil }

func newTestService(t *testing.T) (*Service, *fakeSales, *fakeVoids, *fakeSettings, *fakeInventory, *fakeLedger, *fakeBroker) {
	t.Helper()

	sales := newFakeSales()
	voids := newFakeVoids()
	settings := newFakeSettings()
	inventory := newFakeInventory()
	ledger := newFakeLedger()
	b := &fakeBroker{}

	svc := &Service{
		Sales:     sales,
		Voids:     voids,
		Settings:  settings,
		Inventory: inventory,
		Ledger:    ledger,
		Broker:    b,
		Logger:    logging.NewNoop(),
	}

	return svc, sales, voids, settings, inventory, ledger, b
}

func oneLine(productID string, qty int, unitPrice float64) SaleLineInput {
	return SaleLineInput{ProductID: productID, Quantity: qty, UnitPrice: decimal.NewFromFloat(unitPrice), Discount: decimal.Zero, Tax: decimal.Zero}
}

func TestCreateSaleComputesTotalsAndEnqueues(t *testing.T) {
	svc, sales, _, _, inventory, _, b := newTestService(t)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, CreateSaleInput{
		Lines:         []SaleLineInput{oneLine(idgen.New(), 2, 10)},
		PaymentMethod: "cash",
		BearerToken:   "token-1",
	})
	require.NoError(t, err)
	assert.Equal(t, decimal.NewFromInt(20).String(), sale.Subtotal.String())
	assert.Equal(t, decimal.NewFromInt(20).String(), sale.Total.String())
	assert.Equal(t, domain.SyncPending, sale.Status)
	assert.Equal(t, 1, sales.createCalled)

	require.Len(t, inventory.adjustCalls, 1)
	assert.Equal(t, -2, inventory.adjustCalls[0].quantityChange)
	assert.Equal(t, "sale", inventory.adjustCalls[0].movementType)

	require.Len(t, b.published, 1)
	assert.Equal(t, SaleSubject, b.published[0].Subject)
}

func TestCreateSaleAppliesTaxAndDiscount(t *testing.T) {
	svc, _, _, settings, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := settings.Update(ctx, &domain.Settings{DefaultTaxRate: decimal.NewFromFloat(0.1), LedgerCashAccount: "Cash", LedgerRevenueAccount: "Sales Revenue"})
	require.NoError(t, err)

	sale, err := svc.CreateSale(ctx, CreateSaleInput{
		Lines:          []SaleLineInput{oneLine(idgen.New(), 1, 100)},
		PaymentMethod:  "card",
		DiscountAmount: decimal.NewFromInt(5),
		TenderedAmount: decimal.NewFromInt(200),
		TenderedSet:    true,
	})
	require.NoError(t, err)

	// subtotal 100, tax 10% = 10, discount 5 -> total 105
	assert.Equal(t, "10", sale.TaxAmount.String())
	assert.Equal(t, "105", sale.Total.String())
	assert.Equal(t, "95", sale.ChangeDue.String())
}

func TestCreateSaleRejectsTenderedBelowTotal(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSale(ctx, CreateSaleInput{
		Lines:          []SaleLineInput{oneLine(idgen.New(), 1, 50)},
		PaymentMethod:  "cash",
		TenderedAmount: decimal.NewFromInt(10),
		TenderedSet:    true,
	})
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestCreateSaleRejectsEmptyLines(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestService(t)

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{PaymentMethod: "cash"})
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestCreateSaleRequiresSizeForVariantProducts(t *testing.T) {
	svc, _, _, _, inventory, _, _ := newTestService(t)
	ctx := context.Background()

	productID := idgen.New()
	inventory.products[productID] = &inventoryclient.Product{ID: productID, HasSizeVariants: true}

	_, err := svc.CreateSale(ctx, CreateSaleInput{
		Lines:         []SaleLineInput{oneLine(productID, 1, 20)},
		PaymentMethod: "cash",
	})
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
	assert.Empty(t, inventory.adjustCalls, "stock must not be touched when validation fails")
}

func TestCreateSaleAbortsWithNoPersistenceWhenStockDecrementFails(t *testing.T) {
	svc, sales, _, _, inventory, _, b := newTestService(t)
	ctx := context.Background()

	inventory.adjustErr = assertError{"inventory unreachable"}

	_, err := svc.CreateSale(ctx, CreateSaleInput{
		Lines:         []SaleLineInput{oneLine(idgen.New(), 1, 20)},
		PaymentMethod: "cash",
	})
	require.Error(t, err)
	assert.IsType(t, apperr.RemoteUnavailableError{}, err)
	assert.Equal(t, 0, sales.createCalled)
	assert.Empty(t, b.published)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
