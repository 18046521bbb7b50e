package domain

import (
	"context"
	"time"
)

// SaleRepository persists Sale aggregates and their items. Sales are
// append-only: no Update beyond the narrow status/ledger-id transition and
// no Delete.
type SaleRepository interface {
	Create(ctx context.Context, s *Sale) (*Sale, error)
	FindByID(ctx context.Context, id string) (*Sale, error)
	FindBySaleNumber(ctx context.Context, saleNumber string) (*Sale, error)
	List(ctx context.Context, status SyncStatus, from, to time.Time, limit, offset int) ([]*Sale, error)
	// ListPendingOrFailed returns every sale whose status is pending or
	// failed, for the worker's boot-time rescan.
	ListPendingOrFailed(ctx context.Context) ([]*Sale, error)
	// MarkSynced transitions a sale to synced and records the Ledger
	// transaction id that now represents it.
	MarkSynced(ctx context.Context, id, ledgerEntryID string) error
	// MarkFailed transitions a sale to failed after an unsuccessful publish
	// attempt.
	MarkFailed(ctx context.Context, id string) error
}

// VoidRepository persists VoidRecord rows.
type VoidRepository interface {
	Create(ctx context.Context, v *VoidRecord) (*VoidRecord, error)
	FindBySaleID(ctx context.Context, saleID string) ([]*VoidRecord, error)
}

// SettingsRepository persists the single Settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) (*Settings, error)
}
