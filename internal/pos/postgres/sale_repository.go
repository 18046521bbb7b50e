// Package postgres implements POS's repository interfaces against Postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// SaleRepository is the Postgres-backed domain.SaleRepository.
type SaleRepository struct {
	conn *pg.Connection
}

// NewSaleRepository builds a SaleRepository over conn.
func NewSaleRepository(conn *pg.Connection) *SaleRepository {
	return &SaleRepository{conn: conn}
}

// Create persists a sale and its items in one DB transaction.
func (r *SaleRepository) Create(ctx context.Context, s *domain.Sale) (*domain.Sale, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if s.ID == "" {
		s.ID = idgen.New()
	}

	s.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `INSERT INTO pos.sales
		(id, sale_number, customer_name, notes, cashier_id, cashier_name, payment_method,
		 subtotal, tax_amount, discount_amount, total, tendered_amount, change_due, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.SaleNumber, s.CustomerName, s.Notes, s.CashierID, s.CashierName, s.PaymentMethod,
		s.Subtotal, s.TaxAmount, s.DiscountAmount, s.Total, s.TenderedAmount, s.ChangeDue, string(s.Status), s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperr.FromPgError(pgErr, "Sale")
		}

		return nil, err
	}

	for i := range s.Items {
		item := &s.Items[i]
		if item.ID == "" {
			item.ID = idgen.New()
		}

		item.SaleID = s.ID

		if _, err := tx.ExecContext(ctx, `INSERT INTO pos.sale_items
			(id, sale_id, product_id, sku, name, size, quantity, unit_price, discount, tax, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			item.ID, item.SaleID, item.ProductID, item.SKU, item.Name, item.Size,
			item.Quantity, item.UnitPrice, item.Discount, item.Tax, item.LineTotal); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s, nil
}

func scanSale(row interface {
	Scan(dest ...any) error
}) (*domain.Sale, error) {
	s := &domain.Sale{}

	var status string

	var ledgerEntryID sql.NullString

	err := row.Scan(&s.ID, &s.SaleNumber, &s.CustomerName, &s.Notes, &s.CashierID, &s.CashierName,
		&s.PaymentMethod, &s.Subtotal, &s.TaxAmount, &s.DiscountAmount, &s.Total,
		&s.TenderedAmount, &s.ChangeDue, &status, &ledgerEntryID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	s.Status = domain.SyncStatus(status)
	s.LedgerEntryID = ledgerEntryID.String

	return s, nil
}

const saleColumns = `id, sale_number, customer_name, notes, cashier_id, cashier_name, payment_method,
	subtotal, tax_amount, discount_amount, total, tendered_amount, change_due, status, ledger_entry_id, created_at`

func (r *SaleRepository) itemsFor(ctx context.Context, db interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, saleID string) ([]domain.SaleItem, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, sale_id, product_id, sku, name, size, quantity, unit_price, discount, tax, line_total
		FROM pos.sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SaleItem

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.SKU, &item.Name, &item.Size,
			&item.Quantity, &item.UnitPrice, &item.Discount, &item.Tax, &item.LineTotal); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// FindByID looks up a sale and its items by id.
func (r *SaleRepository) FindByID(ctx context.Context, id string) (*domain.Sale, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM pos.sales WHERE id = $1`, id)

	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Sale", Code: "CB0027", Message: "sale not found"}
		}

		return nil, err
	}

	s.Items, err = r.itemsFor(ctx, db, s.ID)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// FindBySaleNumber looks up a sale and its items by its human-facing number.
func (r *SaleRepository) FindBySaleNumber(ctx context.Context, saleNumber string) (*domain.Sale, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM pos.sales WHERE sale_number = $1`, saleNumber)

	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Sale", Code: "CB0027", Message: "sale not found"}
		}

		return nil, err
	}

	s.Items, err = r.itemsFor(ctx, db, s.ID)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// List returns a page of sales optionally filtered by status and
// sale-date range.
func (r *SaleRepository) List(ctx context.Context, status domain.SyncStatus, from, to time.Time, limit, offset int) ([]*domain.Sale, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	q := sqrl.Select(saleColumnsList()...).
		From("pos.sales").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sqrl.Dollar)

	if status != "" {
		q = q.Where(sqrl.Eq{"status": string(status)})
	}

	if !from.IsZero() {
		q = q.Where(sqrl.GtOrEq{"created_at": from})
	}

	if !to.IsZero() {
		q = q.Where(sqrl.LtOrEq{"created_at": to})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

// ListPendingOrFailed returns every sale whose status is pending or failed,
// for the worker's boot-time rescan.
func (r *SaleRepository) ListPendingOrFailed(ctx context.Context) ([]*domain.Sale, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+saleColumns+` FROM pos.sales WHERE status IN ('pending', 'failed') ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSales(rows)
}

func scanSales(rows *sql.Rows) ([]*domain.Sale, error) {
	var sales []*domain.Sale

	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}

		sales = append(sales, s)
	}

	return sales, rows.Err()
}

func saleColumnsList() []string {
	return []string{"id", "sale_number", "customer_name", "notes", "cashier_id", "cashier_name", "payment_method",
		"subtotal", "tax_amount", "discount_amount", "total", "tendered_amount", "change_due", "status", "ledger_entry_id", "created_at"}
}

// MarkSynced transitions a sale to synced and records its ledger entry id.
func (r *SaleRepository) MarkSynced(ctx context.Context, id, ledgerEntryID string) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `UPDATE pos.sales SET status = 'synced', ledger_entry_id = $1 WHERE id = $2`, ledgerEntryID, id)

	return err
}

// MarkFailed transitions a sale to failed after an unsuccessful publish
// attempt.
func (r *SaleRepository) MarkFailed(ctx context.Context, id string) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `UPDATE pos.sales SET status = 'failed' WHERE id = $1`, id)

	return err
}
