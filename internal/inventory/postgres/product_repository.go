// Package postgres implements Inventory's repository interfaces against
// Postgres, grounded in the same connection-wrapping, squirrel-backed style
// used throughout the auth postgres package.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/corebooks/core/internal/inventory/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/pg"
)

// ProductRepository is the Postgres-backed domain.ProductRepository.
type ProductRepository struct {
	conn *pg.Connection
}

// NewProductRepository builds a ProductRepository over conn.
func NewProductRepository(conn *pg.Connection) *ProductRepository {
	return &ProductRepository{conn: conn}
}

func scanProduct(row interface {
	Scan(dest ...any) error
}) (*domain.Product, error) {
	p := &domain.Product{}

	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.CostPrice, &p.SellingPrice, &p.Category, &p.Brand, &p.Active, &p.HasSizeVariants)

	return p, err
}

// FindByID looks up a product by id.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, sku, name, cost_price, selling_price, category, brand, active, has_size_variants
		FROM inventory.products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Product", Code: "CB0023", Message: "product not found"}
		}

		return nil, err
	}

	return p, nil
}

// List returns a page of products optionally filtered by search (ILIKE
// against name/sku), category, and brand.
func (r *ProductRepository) List(ctx context.Context, search, category, brand string, limit, offset int) ([]*domain.Product, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	q := sqrl.Select("id", "sku", "name", "cost_price", "selling_price", "category", "brand", "active", "has_size_variants").
		From("inventory.products").
		OrderBy("name ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sqrl.Dollar)

	if search != "" {
		like := "%" + search + "%"
		q = q.Where(sqrl.Or{sqrl.ILike{"name": like}, sqrl.ILike{"sku": like}})
	}

	if category != "" {
		q = q.Where(sqrl.Eq{"category": category})
	}

	if brand != "" {
		q = q.Where(sqrl.Eq{"brand": brand})
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

	var products []*domain.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}

		products = append(products, p)
	}

	return products, rows.Err()
}
