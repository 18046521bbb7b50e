package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// RoleRepository is the Postgres-backed domain.RoleRepository.
type RoleRepository struct {
	conn *pg.Connection
}

// NewRoleRepository builds a RoleRepository over conn.
func NewRoleRepository(conn *pg.Connection) *RoleRepository {
	return &RoleRepository{conn: conn}
}

// Create inserts a new role.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if role.ID == "" {
		role.ID = idgen.New()
	}

	_, err = db.ExecContext(ctx, `INSERT INTO auth.roles (id, name) VALUES ($1, $2)`, role.ID, role.Name)

	return role, err
}

// FindByID looks up a role by id.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	role := &domain.Role{}

	err = db.QueryRowContext(ctx, `SELECT id, name FROM auth.roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Role", Code: "CB0009", Message: "role not found"}
		}

		return nil, err
	}

	return role, nil
}

// FindByName looks up a role by name.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	role := &domain.Role{}

	err = db.QueryRowContext(ctx, `SELECT id, name FROM auth.roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "Role", Code: "CB0009", Message: "role not found"}
		}

		return nil, err
	}

	return role, nil
}

// List returns every role.
func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, name FROM auth.roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*domain.Role

	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}

		roles = append(roles, role)
	}

	return roles, rows.Err()
}

// PermissionsForRole returns every permission granted to roleID.
func (r *RoleRepository) PermissionsForRole(ctx context.Context, roleID string) ([]domain.Permission, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT p.id, p.resource, p.action
		FROM auth.permissions p
		JOIN auth.role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1`, roleID)
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

// SetRolePermissions replaces roleID's permission grants atomically.
func (r *RoleRepository) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM auth.role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}

	for _, permID := range permissionIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO auth.role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
