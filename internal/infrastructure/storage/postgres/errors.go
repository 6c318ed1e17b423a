package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"atelier/internal/core/apperror"
)

// PostgreSQL error codes the engine reacts to.
const (
	pgUniqueViolation      = "23505"
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
)

// MapError converts store failures into AppErrors. Errors that already
// carry an AppError pass through unchanged so domain failures raised
// inside a transaction keep their code.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewConflict("duplicate value").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgExclusionViolation:
			return apperror.NewScheduleConflict(nil).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
			return apperror.NewAborted(err)
		}
	}
	return apperror.NewInternal(err)
}
