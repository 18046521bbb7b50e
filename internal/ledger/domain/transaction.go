package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineType is debit or credit.
type LineType string

const (
	LineTypeDebit  LineType = "DEBIT"
	LineTypeCredit LineType = "CREDIT"
)

// IsValid reports whether t is DEBIT or CREDIT.
func (t LineType) IsValid() bool {
	return t == LineTypeDebit || t == LineTypeCredit
}

// TransactionSource names which caller posted a Transaction. Lowercase is
// canonical; UnmarshalJSON normalizes any case variant a client sends.
type TransactionSource string

const (
	SourcePOS    TransactionSource = "pos"
	SourceAPI    TransactionSource = "api"
	SourceImport TransactionSource = "import"
	SourceManual TransactionSource = "manual"
	SourceWeb    TransactionSource = "web"
)

// IsValid reports whether s is one of the five recognized sources.
func (s TransactionSource) IsValid() bool {
	switch s {
	case SourcePOS, SourceAPI, SourceImport, SourceManual, SourceWeb:
		return true
	default:
		return false
	}
}

// UnmarshalJSON lowercases the incoming string so a client-sent "POS" and
// "pos" are the same source.
func (s *TransactionSource) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = TransactionSource(strings.ToLower(raw))

	return nil
}

// TransactionLine is one posting against one account within a Transaction.
type TransactionLine struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Type          LineType        `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
}

// Transaction is a balanced group of two or more TransactionLines:
// Σdebits must equal Σcredits to the cent.
type Transaction struct {
	ID          string            `json:"id"`
	Reference   string            `json:"reference"`
	Source      TransactionSource `json:"source"`
	Description string            `json:"description"`
	OccurredAt  time.Time         `json:"occurred_at"`
	CreatedAt   time.Time         `json:"created_at"`
	Lines       []TransactionLine `json:"lines"`
}

// TotalsByType sums this transaction's lines by debit/credit.
func (t *Transaction) TotalsByType() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero

	for _, l := range t.Lines {
		if l.Type == LineTypeDebit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}

	return debits, credits
}
