package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"brokerledger/src/ledgererr"
)

func TestTranslateError(t *testing.T) {
	insufficient := &ledgererr.InsufficientFundsError{Required: decimal.NewFromInt(2), Available: decimal.NewFromInt(1)}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate key", gorm.ErrDuplicatedKey, ledgererr.ErrConcurrencyConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ledgererr.ErrConcurrencyConflict},
		{"deadlock", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), ledgererr.ErrConcurrencyConflict},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, ledgererr.ErrConcurrencyConflict},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ledgererr.ErrConcurrencyConflict},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, ledgererr.ErrConcurrencyConflict},
		{"deadline", context.DeadlineExceeded, ledgererr.ErrConcurrencyConflict},
		{"check violation", &pgconn.PgError{Code: "23514"}, ledgererr.ErrStoreFailure},
		{"sqlite io", sqlite3.Error{Code: sqlite3.ErrIoErr}, ledgererr.ErrStoreFailure},
		{"plain", errors.New("connection reset"), ledgererr.ErrStoreFailure},
		{"already classified", insufficient, ledgererr.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("op", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, translateError("op", nil))
	assert.Same(t, insufficient, translateError("op", insufficient))
}
