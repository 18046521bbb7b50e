// Package postgres implements Auth's repository interfaces against
// Postgres, grounded in
// adapters/database/postgres/account.postgresql.go: a connection-backed
// struct per aggregate, positional-parameter SQL, squirrel for dynamic
// list queries, pgconn.PgError mapped through apperr.FromPgError.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/bxcodec/dbresolver/v2"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// UserRepository is the Postgres-backed domain.UserRepository.
type UserRepository struct {
	conn *pg.Connection
}

// NewUserRepository builds a UserRepository over conn.
func NewUserRepository(conn *pg.Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

func (r *UserRepository) db(ctx context.Context) (dbresolver.DB, error) {
	return r.conn.GetDB(ctx)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	u := &domain.User{}

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.Active, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	if u.ID == "" {
		u.ID = idgen.New()
	}

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Active = true

	_, err = db.ExecContext(ctx, `INSERT INTO auth.users
		(id, username, email, password_hash, role_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.RoleID, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, apperr.FromPgError(pgErr, "User")
		}

		return nil, err
	}

	return u, nil
}

// FindByID looks up a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, role_id, active, created_at, updated_at
		FROM auth.users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "User", Code: "CB_USER_NOT_FOUND", Message: "user not found"}
		}

		return nil, err
	}

	return u, nil
}

// FindByUsernameOrEmail looks up a user by either username or email.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, role_id, active, created_at, updated_at
		FROM auth.users WHERE username = $1 OR email = $1`, usernameOrEmail)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "User", Code: "CB_USER_NOT_FOUND", Message: "user not found"}
		}

		return nil, err
	}

	return u, nil
}

// ExistsByUsernameOrEmail reports whether a user already holds username or
// email.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}

	var count int

	err = db.QueryRowContext(ctx, `SELECT count(*) FROM auth.users WHERE username = $1 OR email = $2`, username, email).Scan(&count)

	return count > 0, err
}

// List returns a page of users ordered by creation time.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	q := sqrl.Select("id", "username", "email", "password_hash", "role_id", "active", "created_at", "updated_at").
		From("auth.users").
		OrderBy("created_at DESC").
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

	var users []*domain.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}

		users = append(users, u)
	}

	return users, rows.Err()
}

// UpdatePasswordHash replaces a user's stored hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `UPDATE auth.users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return err
	}

	return checkRowsAffected(res, "User")
}

// UpdateRole reassigns a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, userID, roleID string) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `UPDATE auth.users SET role_id = $1, updated_at = now() WHERE id = $2`, roleID, userID)
	if err != nil {
		return err
	}

	return checkRowsAffected(res, "User")
}

// CountAdmins counts users holding the admin role, used to guard the
// bootstrap-admin idempotency rule.
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	err = db.QueryRowContext(ctx, `SELECT count(*) FROM auth.users u JOIN auth.roles r ON r.id = u.role_id WHERE r.name = $1`, domain.RoleAdmin).Scan(&count)

	return count, err
}

func checkRowsAffected(res sql.Result, entityType string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return apperr.EntityNotFoundError{EntityType: entityType, Code: "CB_NOT_FOUND", Message: entityType + " not found"}
	}

	return nil
}
