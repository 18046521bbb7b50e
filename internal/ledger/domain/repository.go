package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountRepository persists Account aggregates.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByCode(ctx context.Context, code string) (*Account, error)
	FindByName(ctx context.Context, name string) (*Account, error)
	ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Account, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Account, error)
	ApplyBalanceDeltas(ctx context.Context, deltas map[string]BalanceDelta) error
}

// BalanceDelta is the net balance movement to apply to one account within a
// posting transaction.
type BalanceDelta struct {
	LineType LineType
	Amount   decimal.Decimal
}

// TransactionRepository persists Transaction aggregates and their lines.
type TransactionRepository interface {
	// Create posts tx and applies its lines' balance deltas atomically in one
	// DB transaction.
	Create(ctx context.Context, tx *Transaction) (*Transaction, error)
	FindByID(ctx context.Context, id string) (*Transaction, error)
	FindBySourceAndReference(ctx context.Context, source TransactionSource, reference string) (*Transaction, error)
	List(ctx context.Context, accountID string, from, to time.Time, limit, offset int) ([]*Transaction, error)
}

// PeriodRepository persists AccountingPeriod aggregates.
type PeriodRepository interface {
	Create(ctx context.Context, p *AccountingPeriod) (*AccountingPeriod, error)
	FindByID(ctx context.Context, id string) (*AccountingPeriod, error)
	FindCovering(ctx context.Context, at time.Time) (*AccountingPeriod, error)
	List(ctx context.Context) ([]*AccountingPeriod, error)
	UpdateStatus(ctx context.Context, id string, status PeriodStatus) error
	OverlapsExisting(ctx context.Context, start, end time.Time) (bool, error)
}

// MetadataRepository persists the optional Mongo-backed descriptive
// metadata for accounts and transactions.
type MetadataRepository interface {
	SetAccountMetadata(ctx context.Context, accountID string, md Metadata) error
	AccountMetadata(ctx context.Context, accountID string) (Metadata, error)
	SetTransactionMetadata(ctx context.Context, transactionID string, md Metadata) error
	TransactionMetadata(ctx context.Context, transactionID string) (Metadata, error)
}
