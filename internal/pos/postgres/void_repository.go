package postgres

import (
	"context"
	"time"

	"github.com/corebooks/core/internal/pos/domain"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// VoidRepository is the Postgres-backed domain.VoidRepository.
type VoidRepository struct {
	conn *pg.Connection
}

// NewVoidRepository builds a VoidRepository over conn.
func NewVoidRepository(conn *pg.Connection) *VoidRepository {
	return &VoidRepository{conn: conn}
}

// Create persists one void/refund record.
func (r *VoidRepository) Create(ctx context.Context, v *domain.VoidRecord) (*domain.VoidRecord, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if v.ID == "" {
		v.ID = idgen.New()
	}

	v.CreatedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, `INSERT INTO pos.void_records
		(id, sale_id, kind, amount, ledger_reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.SaleID, string(v.Kind), v.Amount, v.LedgerReference, v.CreatedBy, v.CreatedAt)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// FindBySaleID returns every void/refund record against saleID, oldest
// first.
func (r *VoidRepository) FindBySaleID(ctx context.Context, saleID string) ([]*domain.VoidRecord, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, sale_id, kind, amount, ledger_reference, created_by, created_at
		FROM pos.void_records WHERE sale_id = $1 ORDER BY created_at`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.VoidRecord

	for rows.Next() {
		v := &domain.VoidRecord{}

		var kind string

		if err := rows.Scan(&v.ID, &v.SaleID, &kind, &v.Amount, &v.LedgerReference, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}

		v.Kind = domain.VoidKind(kind)
		records = append(records, v)
	}

	return records, rows.Err()
}
