package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/pg"
)

// PermissionRepository is the Postgres-backed domain.PermissionRepository.
type PermissionRepository struct {
	conn *pg.Connection
}

// NewPermissionRepository builds a PermissionRepository over conn.
func NewPermissionRepository(conn *pg.Connection) *PermissionRepository {
	return &PermissionRepository{conn: conn}
}

// List returns the full fixed permission catalog.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, resource, action FROM auth.permissions ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission

	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Resource, &p.Action); err != nil {
			return nil, err
		}

		perms = append(perms, p)
	}

	return perms, rows.Err()
}

// FindByKey looks up one permission by its resource/action pair.
func (r *PermissionRepository) FindByKey(ctx context.Context, resource, action string) (*domain.Permission, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	p := &domain.Permission{}

	err = db.QueryRowContext(ctx, `SELECT id, resource, action FROM auth.permissions WHERE resource = $1 AND action = $2`, resource, action).
		Scan(&p.ID, &p.Resource, &p.Action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Permission", Code: "CB_PERMISSION_NOT_FOUND", Message: "permission not found"}
		}

		return nil, err
	}

	return p, nil
}
