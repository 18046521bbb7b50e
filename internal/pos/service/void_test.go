package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/ledgerclient"
)

func seedSyncedSale(t *testing.T, svc *Service, sales *fakeSales, productID string, qty int, unitPrice float64) *domain.Sale {
	t.Helper()

	sale, err := svc.CreateSale(context.Background(), CreateSaleInput{
		Lines:         []SaleLineInput{oneLine(productID, qty, unitPrice)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	require.NoError(t, sales.MarkSynced(context.Background(), sale.ID, "ledger-tx-1"))

	return sale
}

func TestVoidSalePostsCompensatingEntryAndRestoresStock(t *testing.T) {
	svc, sales, _, _, inventory, ledger, _ := newTestService(t)
	ctx := context.Background()

	productID := idgen.New()
	sale := seedSyncedSale(t, svc, sales, productID, 2, 10)
	inventory.adjustCalls = nil // reset the decrement from CreateSale

	record, err := svc.VoidSale(ctx, sale.ID, "manager-1", "token")
	require.NoError(t, err)
	assert.Equal(t, domain.VoidKindVoid, record.Kind)
	assert.Equal(t, "20", record.Amount.String())

	require.Len(t, ledger.postCalls, 1)
	assert.Equal(t, sale.SaleNumber+"-VOID", ledger.postCalls[0].Reference)

	require.Len(t, inventory.adjustCalls, 1)
	assert.Equal(t, 2, inventory.adjustCalls[0].quantityChange)
	assert.Equal(t, "return", inventory.adjustCalls[0].movementType)
}

func TestVoidSaleRejectsSecondVoid(t *testing.T) {
	svc, sales, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	sale := seedSyncedSale(t, svc, sales, idgen.New(), 1, 10)

	_, err := svc.VoidSale(ctx, sale.ID, "manager-1", "token")
	require.NoError(t, err)

	_, err = svc.VoidSale(ctx, sale.ID, "manager-1", "token")
	require.Error(t, err)
	assert.IsType(t, apperr.EntityConflictError{}, err)
}

func TestRefundSaleRejectsAmountExceedingTotal(t *testing.T) {
	svc, sales, _, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	sale := seedSyncedSale(t, svc, sales, idgen.New(), 1, 10)

	_, err := svc.RefundSale(ctx, sale.ID, decimal.NewFromInt(11), "manager-1", "token")
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)
}

func TestRefundSaleFullAmountRestoresStock(t *testing.T) {
	svc, sales, _, _, inventory, _, _ := newTestService(t)
	ctx := context.Background()

	productID := idgen.New()
	sale := seedSyncedSale(t, svc, sales, productID, 3, 10)
	inventory.adjustCalls = nil

	record, err := svc.RefundSale(ctx, sale.ID, decimal.NewFromInt(30), "manager-1", "token")
	require.NoError(t, err)
	assert.Equal(t, domain.VoidKindRefund, record.Kind)

	require.Len(t, inventory.adjustCalls, 1)
	assert.Equal(t, 3, inventory.adjustCalls[0].quantityChange)
}

func TestRefundSalePartialAmountDoesNotRestoreStock(t *testing.T) {
	svc, sales, _, _, inventory, _, _ := newTestService(t)
	ctx := context.Background()

	productID := idgen.New()
	sale := seedSyncedSale(t, svc, sales, productID, 3, 10)
	inventory.adjustCalls = nil

	_, err := svc.RefundSale(ctx, sale.ID, decimal.NewFromInt(10), "manager-1", "token")
	require.NoError(t, err)

	assert.Empty(t, inventory.adjustCalls, "a partial refund does not specify which lines it covers")
}

func TestRefundSaleAllowsMultiplePartialsUpToTotal(t *testing.T) {
	svc, sales, _, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()

	sale := seedSyncedSale(t, svc, sales, idgen.New(), 1, 20)

	_, err := svc.RefundSale(ctx, sale.ID, decimal.NewFromInt(10), "manager-1", "token")
	require.NoError(t, err)

	_, err = svc.RefundSale(ctx, sale.ID, decimal.NewFromInt(10), "manager-1", "token")
	require.NoError(t, err)

	_, err = svc.RefundSale(ctx, sale.ID, decimal.NewFromInt(1), "manager-1", "token")
	require.Error(t, err)
	assert.IsType(t, apperr.ValidationError{}, err)

	require.Len(t, ledger.postCalls, 2)
}

func TestVoidSaleTreatsLedgerConflictAsAlreadyPosted(t *testing.T) {
	svc, sales, _, _, _, ledger, _ := newTestService(t)
	ctx := context.Background()

	sale := seedSyncedSale(t, svc, sales, idgen.New(), 1, 10)
	ledger.postErr = ledgerclient.ErrConflict

	_, err := svc.VoidSale(ctx, sale.ID, "manager-1", "token")
	require.Error(t, err)
	assert.IsType(t, apperr.EntityConflictError{}, err)
}
