// Package domain holds the POS entities: sales, their line items, the
// singleton till settings, and void/refund records.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncStatus is the lifecycle label tracking whether a sale's journal entry
// has reached the Ledger.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// CanRetry reports whether a sale in this state is eligible for another
// publish attempt.
func (s SyncStatus) CanRetry() bool {
	return s == SyncPending || s == SyncFailed
}

// SaleItem is one line of a Sale.
type SaleItem struct {
	ID            string          `json:"id"`
	SaleID        string          `json:"sale_id"`
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku,omitempty"`
	Name          string          `json:"name,omitempty"`
	Size          string          `json:"size,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// Sale is one append-only retail transaction captured at the till. It is
// never mutated after commit; voids and refunds are separate VoidRecords
// plus compensating Ledger transactions.
type Sale struct {
	ID             string          `json:"id"`
	SaleNumber     string          `json:"sale_number"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CashierID      string          `json:"cashier_id,omitempty"`
	CashierName    string          `json:"cashier_name,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	TenderedAmount decimal.Decimal `json:"tendered_amount,omitempty"`
	ChangeDue      decimal.Decimal `json:"change_due,omitempty"`
	Status         SyncStatus      `json:"status"`
	LedgerEntryID  string          `json:"ledger_entry_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []SaleItem      `json:"items"`
}
