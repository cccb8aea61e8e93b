package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"brokerledger/src/ledgererr"
)

// Postgres SQLSTATE codes that mean "another transaction got there first".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateError maps driver errors onto the ledger error taxonomy. Errors that already
// belong to the taxonomy pass through untouched.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if ledgererr.IsCallerError(err) ||
		errors.Is(err, ledgererr.ErrConcurrencyConflict) ||
		errors.Is(err, ledgererr.ErrStoreFailure) {
		return err
	}
	if isConflict(err) {
		return ledgererr.ConcurrencyConflict(op, err)
	}
	return ledgererr.StoreFailure(op, err)
}

func isConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	return errors.Is(err, context.DeadlineExceeded)
}
