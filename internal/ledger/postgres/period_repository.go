package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// PeriodRepository is the Postgres-backed domain.PeriodRepository.
type PeriodRepository struct {
	conn *pg.Connection
}

// NewPeriodRepository builds a PeriodRepository over conn.
func NewPeriodRepository(conn *pg.Connection) *PeriodRepository {
	return &PeriodRepository{conn: conn}
}

func scanPeriod(row interface {
	Scan(dest ...any) error
}) (*domain.AccountingPeriod, error) {
	p := &domain.AccountingPeriod{}

	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)

	return p, err
}

// Create inserts a new period, OPEN by default.
func (r *PeriodRepository) Create(ctx context.Context, p *domain.AccountingPeriod) (*domain.AccountingPeriod, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if p.ID == "" {
		p.ID = idgen.New()
	}

	if p.Status == "" {
		p.Status = domain.PeriodOpen
	}

	_, err = db.ExecContext(ctx, `INSERT INTO ledger.accounting_periods
		(id, name, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		p.ID, p.Name, p.StartDate, p.EndDate, p.Status)
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, p.ID)
}

// FindByID looks up a period by id.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*domain.AccountingPeriod, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at
		FROM ledger.accounting_periods WHERE id = $1`, id)

	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "AccountingPeriod", Code: "CB_PERIOD_NOT_FOUND", Message: "accounting period not found"}
		}

		return nil, err
	}

	return p, nil
}

// FindCovering returns the period whose date range includes at, if any.
func (r *PeriodRepository) FindCovering(ctx context.Context, at time.Time) (*domain.AccountingPeriod, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at
		FROM ledger.accounting_periods WHERE start_date <= $1 AND end_date >= $1`, at)

	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "AccountingPeriod", Code: "CB_PERIOD_NOT_FOUND", Message: "no accounting period covers this date"}
		}

		return nil, err
	}

	return p, nil
}

// List returns every period ordered by start date.
func (r *PeriodRepository) List(ctx context.Context) ([]*domain.AccountingPeriod, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, name, start_date, end_date, status, created_at, updated_at
		FROM ledger.accounting_periods ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []*domain.AccountingPeriod

	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}

		periods = append(periods, p)
	}

	return periods, rows.Err()
}

// UpdateStatus moves a period to a new lifecycle status. Callers are
// expected to have already validated the transition via
// domain.PeriodStatus.CanTransitionTo.
func (r *PeriodRepository) UpdateStatus(ctx context.Context, id string, status domain.PeriodStatus) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `UPDATE ledger.accounting_periods SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return apperr.EntityNotFoundError{EntityType: "AccountingPeriod", Code: "CB_PERIOD_NOT_FOUND", Message: "accounting period not found"}
	}

	return nil
}

// OverlapsExisting reports whether [start, end] overlaps any existing
// period's date range.
func (r *PeriodRepository) OverlapsExisting(ctx context.Context, start, end time.Time) (bool, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return false, err
	}

	var count int

	err = db.QueryRowContext(ctx, `SELECT count(*) FROM ledger.accounting_periods
		WHERE start_date <= $2 AND end_date >= $1`, start, end).Scan(&count)

	return count > 0, err
}
