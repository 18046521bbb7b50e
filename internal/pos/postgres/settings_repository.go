package postgres

import (
	"context"

	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/platform/pg"
)

// SettingsRepository is the Postgres-backed domain.SettingsRepository over
// the one-row `pos.settings` table.
type SettingsRepository struct {
	conn *pg.Connection
}

// NewSettingsRepository builds a SettingsRepository over conn.
func NewSettingsRepository(conn *pg.Connection) *SettingsRepository {
	return &SettingsRepository{conn: conn}
}

// Get reads the singleton settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	s := &domain.Settings{}

	row := db.QueryRowContext(ctx, `SELECT default_tax_rate, tax_inclusive, ledger_cash_account, ledger_revenue_account
		FROM pos.settings WHERE id = 1`)

	if err := row.Scan(&s.DefaultTaxRate, &s.TaxInclusive, &s.LedgerCashAccount, &s.LedgerRevenueAccount); err != nil {
		return nil, err
	}

	return s, nil
}

// Update overwrites the singleton settings row.
func (r *SettingsRepository) Update(ctx context.Context, s *domain.Settings) (*domain.Settings, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `UPDATE pos.settings SET default_tax_rate = $1, tax_inclusive = $2,
		ledger_cash_account = $3, ledger_revenue_account = $4 WHERE id = 1`,
		s.DefaultTaxRate, s.TaxInclusive, s.LedgerCashAccount, s.LedgerRevenueAccount)
	if err != nil {
		return nil, err
	}

	return s, nil
}
