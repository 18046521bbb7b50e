package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corebooks/core/internal/inventory/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// StockRepository is the Postgres-backed domain.StockRepository.
type StockRepository struct {
	conn *pg.Connection
}

// NewStockRepository builds a StockRepository over conn.
func NewStockRepository(conn *pg.Connection) *StockRepository {
	return &StockRepository{conn: conn}
}

func scanStockItem(row interface {
	Scan(dest ...any) error
}) (*domain.StockItem, error) {
	s := &domain.StockItem{}

	err := row.Scan(&s.ID, &s.ProductID, &s.Size, &s.Quantity, &s.ReorderLevel, &s.MaxLevel)

	return s, err
}

// Find looks up the stock item for (productID, size).
func (r *StockRepository) Find(ctx context.Context, productID, size string) (*domain.StockItem, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, product_id, size, quantity, reorder_level, max_level
		FROM inventory.stock_items WHERE product_id = $1 AND size = $2`, productID, size)

	item, err := scanStockItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "StockItem", Code: "CB0024", Message: "no stock item exists for this product and size"}
		}

		return nil, err
	}

	return item, nil
}

// Adjust locks the (productID, size) row, applies delta to its quantity,
// and inserts one StockMovement row recording the change, all in a single
// DB transaction. A missing stock item is an error: rows are never
// auto-created by an adjustment.
func (r *StockRepository) Adjust(ctx context.Context, productID, size string, delta int, movementType domain.MovementType, referenceID string) (*domain.StockItem, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT id, product_id, size, quantity, reorder_level, max_level
		FROM inventory.stock_items WHERE product_id = $1 AND size = $2 FOR UPDATE`, productID, size)

	item, err := scanStockItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "StockItem", Code: "CB0024", Message: "no stock item exists for this product and size"}
		}

		return nil, err
	}

	newQuantity := item.Quantity + delta

	if _, err := tx.ExecContext(ctx, `UPDATE inventory.stock_items SET quantity = $1 WHERE id = $2`, newQuantity, item.ID); err != nil {
		return nil, err
	}

	var referenceArg any
	if referenceID != "" {
		referenceArg = referenceID
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO inventory.stock_movements
		(id, product_id, size, type, quantity_change, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		idgen.New(), productID, size, string(movementType), delta, referenceArg); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	item.Quantity = newQuantity

	return item, nil
}

// ListLow returns every stock item currently at or below its reorder level.
func (r *StockRepository) ListLow(ctx context.Context) ([]*domain.StockItem, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, product_id, size, quantity, reorder_level, max_level
		FROM inventory.stock_items WHERE quantity <= reorder_level ORDER BY product_id, size`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.StockItem

	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// Movements returns a page of the audit log for (productID, size), newest
// first.
func (r *StockRepository) Movements(ctx context.Context, productID, size string, limit, offset int) ([]*domain.StockMovement, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, product_id, size, type, quantity_change, COALESCE(reference_id, ''), created_at
		FROM inventory.stock_movements WHERE product_id = $1 AND size = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, productID, size, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*domain.StockMovement

	for rows.Next() {
		m := &domain.StockMovement{}

		var movementType string

		if err := rows.Scan(&m.ID, &m.ProductID, &m.Size, &movementType, &m.QuantityChange, &m.ReferenceID, &m.CreatedAt); err != nil {
			return nil, err
		}

		m.Type = domain.MovementType(movementType)
		movements = append(movements, m)
	}

	return movements, rows.Err()
}
