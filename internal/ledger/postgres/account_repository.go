// Package postgres implements Ledger's repository interfaces against
// Postgres, grounded in the same connection-wrapping, squirrel-backed style
// used throughout the auth postgres package.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// AccountRepository is the Postgres-backed domain.AccountRepository.
type AccountRepository struct {
	conn *pg.Connection
}

// NewAccountRepository builds an AccountRepository over conn.
func NewAccountRepository(conn *pg.Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

func scanAccount(row interface {
	Scan(dest ...any) error
}) (*domain.Account, error) {
	a := &domain.Account{}

	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance, &a.Active, &a.CreatedAt, &a.UpdatedAt)

	return a, err
}

// Create inserts a new account with a zero opening balance.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if a.ID == "" {
		a.ID = idgen.New()
	}

	a.Active = true
	a.Balance = decimal.Zero

	_, err = db.ExecContext(ctx, `INSERT INTO ledger.accounts
		(id, code, name, type, balance, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		a.ID, a.Code, a.Name, a.Type, a.Balance, a.Active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperr.FromPgError(pgErr, "Account")
		}

		return nil, err
	}

	return r.FindByID(ctx, a.ID)
}

// FindByID looks up an account by id.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, code, name, type, balance, active, created_at, updated_at
		FROM ledger.accounts WHERE id = $1`, id)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Account", Code: "CB_ACCOUNT_NOT_FOUND", Message: "account not found"}
		}

		return nil, err
	}

	return a, nil
}

// FindByCode looks up an account by its chart-of-accounts code.
func (r *AccountRepository) FindByCode(ctx context.Context, code string) (*domain.Account, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, code, name, type, balance, active, created_at, updated_at
		FROM ledger.accounts WHERE code = $1`, code)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Account", Code: "CB_ACCOUNT_NOT_FOUND", Message: "account not found"}
		}

		return nil, err
	}

	return a, nil
}

// FindByName looks up an account by its exact, case-sensitive name. The
// posting engine resolves every transaction line's account this way.
func (r *AccountRepository) FindByName(ctx context.Context, name string) (*domain.Account, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, code, name, type, balance, active, created_at, updated_at
		FROM ledger.accounts WHERE name = $1`, name)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Account", Code: "CB_ACCOUNT_NOT_FOUND", Message: "account not found"}
		}

		return nil, err
	}

	return a, nil
}

// ExistsByNameOrCode reports whether an account already holds name or code.
func (r *AccountRepository) ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return false, err
	}

	var count int

	err = db.QueryRowContext(ctx, `SELECT count(*) FROM ledger.accounts WHERE name = $1 OR code = $2`, name, code).Scan(&count)

	return count > 0, err
}

// List returns a page of accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	q := sqrl.Select("id", "code", "name", "type", "balance", "active", "created_at", "updated_at").
		From("ledger.accounts").
		OrderBy("code ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// ListByIDs returns the accounts matching ids, in no particular order.
func (r *AccountRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	anyIDs := make([]any, len(ids))
	for i, id := range ids {
		anyIDs[i] = id
	}

	q := sqrl.Select("id", "code", "name", "type", "balance", "active", "created_at", "updated_at").
		From("ledger.accounts").
		Where(sqrl.Eq{"id": anyIDs}).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// ApplyBalanceDeltas applies every delta to its account's stored balance,
// honoring each account's natural debit/credit sign, in its own
// transaction. TransactionRepository.Create does not call this method: it
// needs the balance update in the same DB transaction as the line inserts,
// so it applies deltas inline against its own *sql.Tx instead. This method
// exists for callers that adjust balances outside a posting (reconciliation
// tooling, backfills).
func (r *AccountRepository) ApplyBalanceDeltas(ctx context.Context, deltas map[string]domain.BalanceDelta) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := applyBalanceDeltasTx(ctx, tx, deltas); err != nil {
		return err
	}

	return tx.Commit()
}

func applyBalanceDeltasTx(ctx context.Context, tx interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, deltas map[string]domain.BalanceDelta) error {
	for accountID, delta := range deltas {
		row := tx.QueryRowContext(ctx, `SELECT type FROM ledger.accounts WHERE id = $1 FOR UPDATE`, accountID)

		var accountType domain.AccountType
		if err := row.Scan(&accountType); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.EntityNotFoundError{EntityType: "Account", Code: "CB_ACCOUNT_NOT_FOUND", Message: "account not found"}
			}

			return err
		}

		sign := decimal.NewFromInt(1)
		if (delta.LineType == domain.LineTypeDebit) != accountType.NormalBalanceIsDebit() {
			sign = decimal.NewFromInt(-1)
		}

		signedAmount := delta.Amount.Mul(sign)

		if _, err := tx.ExecContext(ctx, `UPDATE ledger.accounts SET balance = balance + $1, updated_at = now() WHERE id = $2`,
			signedAmount, accountID); err != nil {
			return err
		}
	}

	return nil
}
