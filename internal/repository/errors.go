package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nikolayk812/orderflow/internal/domain"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
)

// translate attaches the matching domain sentinel to a database error, keeping the original.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation, pgSerializationFail, pgDeadlockDetected:
		return fmt.Errorf("%w (%w)", domain.ErrConflict, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w (%w)", domain.ErrNotFound, err)
	case pgCheckViolation:
		if pgErr.ConstraintName == "products_stock_non_negative" {
			return fmt.Errorf("%w (%w)", domain.ErrOutOfStock, err)
		}
		return fmt.Errorf("%w (%w)", domain.ErrValidation, err)
	}

	return err
}

// IsUniqueViolation reports whether err was caused by a unique index.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
