package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/core/internal/inventory/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
)

type fakeProducts struct {
	byID map[string]*domain.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byID: map[string]*domain.Product{}}
}

func (f *fakeProducts) seed(sku, name string) *domain.Product {
	p := &domain.Product{
		ID:           idgen.New(),
		SKU:          sku,
		Name:         name,
		CostPrice:    decimal.NewFromFloat(5),
		SellingPrice: decimal.NewFromFloat(15),
		Active:       true,
	}
	f.byID[p.ID] = p

	return p
}

func (f *fakeProducts) FindByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "Product", Code: "CB0023"}
}

func (f *fakeProducts) List(_ context.Context, _, _, _ string, _, _ int) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range f.byID {
		out = append(out, p)
	}

	return out, nil
}

type stockKey struct {
	productID string
	size      string
}

type fakeStock struct {
	items     map[stockKey]*domain.StockItem
	movements map[stockKey][]*domain.StockMovement
}

func newFakeStock() *fakeStock {
	return &fakeStock{items: map[stockKey]*domain.StockItem{}, movements: map[stockKey][]*domain.StockMovement{}}
}

func (f *fakeStock) seed(productID, size string, quantity, reorderLevel, maxLevel int) *domain.StockItem {
	item := &domain.StockItem{ID: idgen.New(), ProductID: productID, Size: size, Quantity: quantity, ReorderLevel: reorderLevel, MaxLevel: maxLevel}
	f.items[stockKey{productID, size}] = item

	return item
}

func (f *fakeStock) Find(_ context.Context, productID, size string) (*domain.StockItem, error) {
	if item, ok := f.items[stockKey{productID, size}]; ok {
		return item, nil
	}

	return nil, apperr.EntityNotFoundError{EntityType: "StockItem", Code: "CB0024"}
}

func (f *fakeStock) Adjust(_ context.Context, productID, size string, delta int, movementType domain.MovementType, referenceID string) (*domain.StockItem, error) {
	key := stockKey{productID, size}

	item, ok := f.items[key]
	if !ok {
		return nil, apperr.EntityNotFoundError{EntityType: "StockItem", Code: "CB0024", Message: "no stock item exists for this product and size"}
	}

	item.Quantity += delta
	f.movements[key] = append(f.movements[key], &domain.StockMovement{
		ID:             idgen.New(),
		ProductID:      productID,
		Size:           size,
		Type:           movementType,
		QuantityChange: delta,
		ReferenceID:    referenceID,
	})

	return item, nil
}

func (f *fakeStock) ListLow(_ context.Context) ([]*domain.StockItem, error) {
	var out []*domain.StockItem
	for _, item := range f.items {
		if item.IsLowStock() {
			out = append(out, item)
		}
	}

	return out, nil
}

func (f *fakeStock) Movements(_ context.Context, productID, size string, _, _ int) ([]*domain.StockMovement, error) {
	return f.movements[stockKey{productID, size}], nil
}

func newTestService(t *testing.T) (*Service, *fakeProducts, *fakeStock) {
	t.Helper()

	products := newFakeProducts()
	stock := newFakeStock()

	return New(products, stock, nil), products, stock
}

func TestAdjustAppliesDeltaAndRecordsMovement(t *testing.T) {
	svc, products, stock := newTestService(t)
	ctx := context.Background()

	product := products.seed("TS-001", "Tee")
	stock.seed(product.ID, "M", 20, 5, 100)

	item, err := svc.Adjust(ctx, AdjustInput{ProductID: product.ID, Size: "M", QuantityChange: -3, MovementType: domain.MovementSale, ReferenceID: "sale-1"})
	require.NoError(t, err)
	assert.Equal(t, 17, item.Quantity)

	movements, err := stock.Movements(ctx, product.ID, "M", 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -3, movements[0].QuantityChange)
	assert.Equal(t, "sale-1", movements[0].ReferenceID)
}

func TestAdjustRejectsMissingStockItem(t *testing.T) {
	svc, products, _ := newTestService(t)
	ctx := context.Background()

	product := products.seed("TS-002", "Hoodie")

	_, err := svc.Adjust(ctx, AdjustInput{ProductID: product.ID, Size: "XL", QuantityChange: 1, MovementType: domain.MovementPurchase})
	require.Error(t, err)
	assert.IsType(t, apperr.EntityNotFoundError{}, err)
}

func TestAdjustRejectsInvalidMovementType(t *testing.T) {
	svc, products, stock := newTestService(t)
	ctx := context.Background()

	product := products.seed("TS-003", "Mug")
	stock.seed(product.ID, "ONE", 10, 2, 50)

	_, err := svc.Adjust(ctx, AdjustInput{ProductID: product.ID, Size: "ONE", QuantityChange: 1, MovementType: "bogus"})
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestAdjustRejectsMissingSize(t *testing.T) {
	svc, products, _ := newTestService(t)
	ctx := context.Background()

	product := products.seed("TS-004", "Cap")

	_, err := svc.Adjust(ctx, AdjustInput{ProductID: product.ID, MovementType: domain.MovementAdjustment})
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestAdjustPermitsNegativeQuantity(t *testing.T) {
	svc, products, stock := newTestService(t)
	ctx := context.Background()

	product := products.seed("TS-005", "Socks")
	stock.seed(product.ID, "M", 2, 5, 50)

	item, err := svc.Adjust(ctx, AdjustInput{ProductID: product.ID, Size: "M", QuantityChange: -5, MovementType: domain.MovementSale})
	require.NoError(t, err)
	assert.Equal(t, -3, item.Quantity)
	assert.True(t, item.IsLowStock())
}

func TestLowStockListsItemsAtOrBelowReorderLevel(t *testing.T) {
	svc, products, stock := newTestService(t)
	ctx := context.Background()

	low := products.seed("TS-006", "Beanie")
	stock.seed(low.ID, "ONE", 3, 5, 40)

	healthy := products.seed("TS-007", "Scarf")
	stock.seed(healthy.ID, "ONE", 30, 5, 40)

	items, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ProductID)
}
