// Package domain holds Ledger's double-entry bookkeeping entities:
// accounts, transactions, transaction lines, and accounting periods (spec
// §3.2).
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is one of the five classical account types. Its natural sign
// determines how a debit/credit line moves Balance.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five recognized account types.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// NormalBalanceIsDebit reports whether a debit increases this account type's
// balance (assets and expenses), as opposed to a credit (liabilities,
// equity, income).
func (t AccountType) NormalBalanceIsDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account is a node in the chart of accounts.
type Account struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ApplyLine moves Balance according to this account's natural sign: a debit
// increases a debit-normal account and decreases a credit-normal one, and
// symmetrically for a credit.
func (a *Account) ApplyLine(lineType LineType, amount decimal.Decimal) {
	sign := decimal.NewFromInt(1)
	if (lineType == LineTypeDebit) != a.Type.NormalBalanceIsDebit() {
		sign = decimal.NewFromInt(-1)
	}

	a.Balance = a.Balance.Add(amount.Mul(sign))
}
