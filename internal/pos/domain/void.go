package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoidKind distinguishes a full void from a partial refund.
type VoidKind string

const (
	VoidKindVoid   VoidKind = "void"
	VoidKindRefund VoidKind = "refund"
)

// VoidRecord links a compensating Ledger transaction back to the original
// sale it reverses, in full (void) or in part (refund). The original Sale
// row is never mutated.
type VoidRecord struct {
	ID             string          `json:"id"`
	SaleID         string          `json:"sale_id"`
	Kind           VoidKind        `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	LedgerReference string         `json:"ledger_reference"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}
