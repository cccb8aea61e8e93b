// Package ledger defines the contract between the ledger engines and the store that
// persists accounts, positions and transactions.
//
// All mutations happen inside a unit of work. Exclusive access to an account or a
// position is represented by a lock token (LockedAccount, LockedPosition) issued by the
// unit of work; engines accept tokens instead of ids so that holding the lock is checked
// by the type system. Locks are released when the unit of work ends, on every path.
package ledger

import (
	"context"

	"brokerledger/src/model"
)

// Store opens units of work.
type Store interface {
	// WithinUnitOfWork runs fn inside one atomic scope. If fn returns an error every
	// staged write is discarded and the error is returned unchanged; otherwise all
	// writes are committed together. Locks taken through the UnitOfWork are held until
	// the scope has committed or rolled back.
	WithinUnitOfWork(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// UnitOfWork is the set of store operations available inside an atomic scope.
type UnitOfWork interface {
	// LockAccount acquires exclusive access to the account. Locking an account already
	// held by the same unit of work returns the existing token.
	LockAccount(ctx context.Context, accountID uint) (*LockedAccount, error)

	// LockOrCreatePosition acquires exclusive access to the (account, instrument)
	// position, creating it flat when absent. The account token enforces the
	// account-before-position lock order.
	LockOrCreatePosition(ctx context.Context, account *LockedAccount, instrumentID uint) (*LockedPosition, error)

	// FindInstrumentBySymbol returns ledgererr.ErrInstrumentNotFound when absent.
	FindInstrumentBySymbol(ctx context.Context, symbol string) (*model.Instrument, error)

	SaveAccount(ctx context.Context, account *LockedAccount) error
	SavePosition(ctx context.Context, position *LockedPosition) error
	AppendTransaction(ctx context.Context, tx *model.Transaction) error

	// ListTransactions returns the account's transactions in commit order.
	ListTransactions(ctx context.Context, accountID uint) ([]model.Transaction, error)
}
