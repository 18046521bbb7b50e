package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// TransactionRepository is the Postgres-backed domain.TransactionRepository.
type TransactionRepository struct {
	conn *pg.Connection
}

// NewTransactionRepository builds a TransactionRepository over conn.
func NewTransactionRepository(conn *pg.Connection) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create posts tx: it inserts the transaction row, inserts every line, and
// applies each line's balance delta to its account, all inside one DB
// transaction so a partial posting can never be observed. The unique index
// on (source, reference) makes a duplicate post return a conflict rather
// than double-posting.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if t.ID == "" {
		t.ID = idgen.New()
	}

	t.CreatedAt = time.Now().UTC()

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `INSERT INTO ledger.transactions
		(id, reference, source, description, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Reference, t.Source, t.Description, t.OccurredAt, t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperr.FromPgError(pgErr, "Transaction")
		}

		return nil, err
	}

	deltas := make(map[string]domain.BalanceDelta, len(t.Lines))

	for i := range t.Lines {
		line := &t.Lines[i]
		if line.ID == "" {
			line.ID = idgen.New()
		}

		line.TransactionID = t.ID

		_, err = sqlTx.ExecContext(ctx, `INSERT INTO ledger.transaction_lines
			(id, transaction_id, account_id, type, amount)
			VALUES ($1, $2, $3, $4, $5)`,
			line.ID, line.TransactionID, line.AccountID, line.Type, line.Amount)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				return nil, apperr.FromPgError(pgErr, "TransactionLine")
			}

			return nil, err
		}

		existing, ok := deltas[line.AccountID]
		if !ok {
			deltas[line.AccountID] = domain.BalanceDelta{LineType: line.Type, Amount: line.Amount}

			continue
		}

		// Same account appears on multiple lines of this transaction: fold
		// into one net delta so applyBalanceDeltasTx sees one update per
		// account rather than clobbering earlier writes within this tx.
		deltas[line.AccountID] = netDelta(existing, domain.BalanceDelta{LineType: line.Type, Amount: line.Amount})
	}

	if err := applyBalanceDeltasTx(ctx, sqlTx, deltas); err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}

	return t, nil
}

// netDelta folds b into a, expressing the result as a single delta in a's
// line type.
func netDelta(a, b domain.BalanceDelta) domain.BalanceDelta {
	if a.LineType == b.LineType {
		return domain.BalanceDelta{LineType: a.LineType, Amount: a.Amount.Add(b.Amount)}
	}

	net := a.Amount.Sub(b.Amount)
	if net.IsNegative() {
		return domain.BalanceDelta{LineType: b.LineType, Amount: net.Neg()}
	}

	return domain.BalanceDelta{LineType: a.LineType, Amount: net}
}

func scanTransaction(row interface {
	Scan(dest ...any) error
}) (*domain.Transaction, error) {
	t := &domain.Transaction{}

	err := row.Scan(&t.ID, &t.Reference, &t.Source, &t.Description, &t.OccurredAt, &t.CreatedAt)

	return t, err
}

// FindByID looks up a transaction and its lines by id.
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, reference, source, description, occurred_at, created_at
		FROM ledger.transactions WHERE id = $1`, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Transaction", Code: "CB_TRANSACTION_NOT_FOUND", Message: "transaction not found"}
		}

		return nil, err
	}

	lines, err := r.linesFor(ctx, db, id)
	if err != nil {
		return nil, err
	}

	t.Lines = lines

	return t, nil
}

// FindBySourceAndReference supports the exactly-once posting check: callers
// query this before posting to decide whether a retried request has already
// been applied.
func (r *TransactionRepository) FindBySourceAndReference(ctx context.Context, source domain.TransactionSource, reference string) (*domain.Transaction, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, reference, source, description, occurred_at, created_at
		FROM ledger.transactions WHERE source = $1 AND reference = $2`, string(source), reference)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Transaction", Code: "CB_TRANSACTION_NOT_FOUND", Message: "transaction not found"}
		}

		return nil, err
	}

	lines, err := r.linesFor(ctx, db, t.ID)
	if err != nil {
		return nil, err
	}

	t.Lines = lines

	return t, nil
}

// List returns a page of transactions touching accountID within [from, to],
// most recent first.
func (r *TransactionRepository) List(ctx context.Context, accountID string, from, to time.Time, limit, offset int) ([]*domain.Transaction, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT DISTINCT t.id, t.reference, t.source, t.description, t.occurred_at, t.created_at
		FROM ledger.transactions t
		JOIN ledger.transaction_lines l ON l.transaction_id = t.id
		WHERE l.account_id = $1 AND t.occurred_at >= $2 AND t.occurred_at <= $3
		ORDER BY t.occurred_at DESC
		LIMIT $4 OFFSET $5`, accountID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*domain.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range txs {
		lines, err := r.linesFor(ctx, db, t.ID)
		if err != nil {
			return nil, err
		}

		t.Lines = lines
	}

	return txs, nil
}

func (r *TransactionRepository) linesFor(ctx context.Context, db interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, transactionID string) ([]domain.TransactionLine, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, transaction_id, account_id, type, amount
		FROM ledger.transaction_lines WHERE transaction_id = $1 ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.TransactionLine

	for rows.Next() {
		var l domain.TransactionLine
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.AccountID, &l.Type, &l.Amount); err != nil {
			return nil, err
		}

		lines = append(lines, l)
	}

	return lines, rows.Err()
}
