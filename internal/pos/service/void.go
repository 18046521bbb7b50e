package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/money"
	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/pos/ledgerclient"
)

// VoidSale reverses a sale in full: a compensating Ledger transaction
// (debit Revenue, credit Cash for the original total) plus a positive
// stock adjustment per line. The original sale row is never mutated.
func (s *Service) VoidSale(ctx context.Context, saleID, createdBy, bearerToken string) (*domain.VoidRecord, error) {
	sale, err := s.Sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Voids.FindBySaleID(ctx, saleID)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "VoidRecord")
	}

	for _, v := range existing {
		if v.Kind == domain.VoidKindVoid {
			return nil, apperr.EntityConflictError{Code: "CB0028", Title: "Already Voided", Message: "this sale has already been voided"}
		}
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Settings")
	}

	reference := sale.SaleNumber + "-VOID"

	ledgerEntryID, err := s.postCompensatingEntry(ctx, bearerToken, settings, sale.Total, sale.SaleNumber, reference, "void")
	if err != nil {
		return nil, err
	}

	s.restoreStock(ctx, sale, reference, bearerToken)

	record, err := s.Voids.Create(ctx, &domain.VoidRecord{
		SaleID:          sale.ID,
		Kind:            domain.VoidKindVoid,
		Amount:          sale.Total,
		LedgerReference: ledgerEntryID,
		CreatedBy:       createdBy,
	})
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "VoidRecord")
	}

	return record, nil
}

// RefundSale reverses a sale in part or in full: the same compensating
// journal shape as a void, scaled to amount, plus a stock restore when the
// refund covers the sale's whole total (a partial refund does not specify
// which lines it covers, so only a full-amount refund restores stock).
func (s *Service) RefundSale(ctx context.Context, saleID string, amount decimal.Decimal, createdBy, bearerToken string) (*domain.VoidRecord, error) {
	amount = money.Round2(amount)

	sale, err := s.Sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Voids.FindBySaleID(ctx, saleID)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "VoidRecord")
	}

	refunded := decimal.Zero

	for _, v := range existing {
		if v.Kind == domain.VoidKindVoid {
			return nil, apperr.EntityConflictError{Code: "CB0028", Title: "Already Voided", Message: "this sale has already been voided"}
		}

		refunded = refunded.Add(v.Amount)
	}

	if refunded.Add(amount).GreaterThan(sale.Total) && !money.Equal(refunded.Add(amount), sale.Total) {
		return nil, apperr.ValidationError{Code: "CB0029", Title: "Refund Exceeds Total", Message: "this refund would exceed the sale's total"}
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "Settings")
	}

	recordID := idgen.New()
	reference := sale.SaleNumber + "-REFUND-" + recordID

	ledgerEntryID, err := s.postCompensatingEntry(ctx, bearerToken, settings, amount, sale.SaleNumber, reference, "refund")
	if err != nil {
		return nil, err
	}

	if money.Equal(amount, sale.Total) {
		s.restoreStock(ctx, sale, reference, bearerToken)
	}

	record, err := s.Voids.Create(ctx, &domain.VoidRecord{
		ID:              recordID,
		SaleID:          sale.ID,
		Kind:            domain.VoidKindRefund,
		Amount:          amount,
		LedgerReference: ledgerEntryID,
		CreatedBy:       createdBy,
	})
	if err != nil {
		return nil, apperr.ValidateInternalError(err, "VoidRecord")
	}

	return record, nil
}

func (s *Service) postCompensatingEntry(ctx context.Context, bearerToken string, settings *domain.Settings, amount decimal.Decimal, saleNumber, reference, kind string) (string, error) {
	req := ledgerclient.PostTransactionRequest{
		Description: fmt.Sprintf("%s of sale %s", kind, saleNumber),
		Source:      "pos",
		Reference:   reference,
		Lines: []ledgerclient.Line{
			{AccountName: settings.LedgerRevenueAccount, Type: "debit", Amount: amount.String()},
			{AccountName: settings.LedgerCashAccount, Type: "credit", Amount: amount.String()},
		},
	}

	ledgerEntryID, err := s.Ledger.PostTransaction(ctx, bearerToken, req)
	if err != nil {
		if errors.Is(err, ledgerclient.ErrConflict) {
			return "", apperr.EntityConflictError{Code: "CB0022", Title: "Duplicate Reference", Message: fmt.Sprintf("a %s for this sale has already been posted", kind)}
		}

		return "", apperr.RemoteUnavailableError{Code: "CB0033", Title: "Ledger Unavailable", Message: fmt.Sprintf("could not post %s entry: %v", kind, err)}
	}

	return ledgerEntryID, nil
}

// restoreStock applies a positive adjustment per line. Failures are logged,
// not surfaced: the accounting entry has already committed, and a stock
// mismatch here is a reconciliation concern, not grounds to fail the
// void/refund the caller is waiting on.
func (s *Service) restoreStock(ctx context.Context, sale *domain.Sale, reference, bearerToken string) {
	for _, item := range sale.Items {
		size := item.Size
		if size == "" {
			size = unsizedStock
		}

		if err := s.Inventory.Adjust(ctx, bearerToken, item.ProductID, size, item.Quantity, "return", reference); err != nil {
			s.Logger.Errorf("sale %s: stock restore failed for product %s: %v", sale.SaleNumber, item.ProductID, err)
		}
	}
}
