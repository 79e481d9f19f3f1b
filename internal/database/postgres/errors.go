package postgres

import (
	"errors"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeCheckViolation       = "23514"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
)

// Classify turns driver errors into the service error kinds. Other errors pass through.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return apperror.Conflict(op, err)
	case codeCheckViolation:
		return &apperror.InsufficientStockError{}
	case codeUniqueViolation:
		return apperror.Validation(pgErr.ConstraintName, "already exists")
	case codeForeignKeyViolation:
		return apperror.NotFound(pgErr.TableName, pgErr.ConstraintName)
	}
	return err
}
