package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/corebooks/core/internal/auth/domain"
	"github.com/corebooks/core/internal/platform/apperr"
	"github.com/corebooks/core/internal/platform/idgen"
	"github.com/corebooks/core/internal/platform/pg"
)

// RefreshSessionRepository is the Postgres-backed domain.RefreshSessionRepository.
type RefreshSessionRepository struct {
	conn *pg.Connection
}

// NewRefreshSessionRepository builds a RefreshSessionRepository over conn.
func NewRefreshSessionRepository(conn *pg.Connection) *RefreshSessionRepository {
	return &RefreshSessionRepository{conn: conn}
}

// Create inserts a new active session.
func (r *RefreshSessionRepository) Create(ctx context.Context, s *domain.RefreshSession) (*domain.RefreshSession, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	if s.ID == "" {
		s.ID = idgen.New()
	}

	s.Active = true
	s.CreatedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, `INSERT INTO auth.refresh_sessions (id, user_id, token_hash, active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UserID, s.TokenHash, s.Active, s.ExpiresAt, s.CreatedAt)

	return s, err
}

// FindByID looks up a session by id.
func (r *RefreshSessionRepository) FindByID(ctx context.Context, id string) (*domain.RefreshSession, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	s := &domain.RefreshSession{}

	err = db.QueryRowContext(ctx, `SELECT id, user_id, token_hash, active, expires_at, created_at
		FROM auth.refresh_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.TokenHash, &s.Active, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.EntityNotFoundError{EntityType: "RefreshSession", Code: "CB0007", Message: "refresh session not found"}
		}

		return nil, err
	}

	return s, nil
}

// Deactivate marks a single session inactive.
func (r *RefreshSessionRepository) Deactivate(ctx context.Context, id string) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `UPDATE auth.refresh_sessions SET active = false WHERE id = $1`, id)

	return err
}

// DeactivateAllForUser revokes every session belonging to userID, the
// behavior change-password triggers.
func (r *RefreshSessionRepository) DeactivateAllForUser(ctx context.Context, userID string) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `UPDATE auth.refresh_sessions SET active = false WHERE user_id = $1`, userID)

	return err
}
