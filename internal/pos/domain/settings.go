package domain

import "github.com/shopspring/decimal"

// Settings is the one singleton row of till configuration: the default tax
// rate applied when a sale's lines don't specify their own, and the
// chart-of-accounts names the accounting policy posts a sale's baseline
// 2-line journal against.
type Settings struct {
	DefaultTaxRate       decimal.Decimal `json:"default_tax_rate"`
	TaxInclusive         bool            `json:"tax_inclusive"`
	LedgerCashAccount    string          `json:"ledger_cash_account"`
	LedgerRevenueAccount string          `json:"ledger_revenue_account"`
}
