package apperr

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes this codebase distinguishes.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
)

// FromPgError maps a *pgconn.PgError to the taxonomy error callers should
// surface, grounded in app.ValidatePGError's switch shape.
func FromPgError(pgErr *pgconn.PgError, entityType string) error {
	switch pgErr.Code {
	case pgUniqueViolation:
		return EntityConflictError{
			Code:    "CB0011",
			Title:   "Conflict",
			Message: fmt.Sprintf("%s violates a uniqueness constraint: %s", entityType, pgErr.ConstraintName),
		}
	case pgCheckViolation:
		return ValidationError{
			Code:    "CB_CHECK_VIOLATION",
			Title:   "Validation Error",
			Message: fmt.Sprintf("%s violates constraint %s", entityType, pgErr.ConstraintName),
		}
	case pgForeignKeyViolation:
		return ValidationError{
			Code:    "CB_FK_VIOLATION",
			Title:   "Validation Error",
			Message: fmt.Sprintf("%s references a row that does not exist", entityType),
		}
	default:
		return ValidateInternalError(pgErr, entityType)
	}
}
