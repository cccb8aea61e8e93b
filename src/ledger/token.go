package ledger

import (
	"fmt"

	"brokerledger/src/ledgererr"
	"brokerledger/src/model"
)

// LockedAccount is proof that a unit of work holds the account's exclusive lock.
type LockedAccount struct {
	Account *model.Account
	uow     UnitOfWork
}

// NewLockedAccount is called by store implementations when the lock has been acquired.
func NewLockedAccount(uow UnitOfWork, account *model.Account) *LockedAccount {
	return &LockedAccount{Account: account, uow: uow}
}

// UnitOfWork returns the scope holding the lock.
func (l *LockedAccount) UnitOfWork() UnitOfWork {
	return l.uow
}

// HeldBy fails with ledgererr.ErrLockOrder unless the token was issued by uow.
func (l *LockedAccount) HeldBy(uow UnitOfWork) error {
	if l == nil || l.Account == nil {
		return fmt.Errorf("%w: nil account token", ledgererr.ErrLockOrder)
	}
	if l.uow == nil || l.uow != uow {
		return fmt.Errorf("%w: account %d is locked by another unit of work", ledgererr.ErrLockOrder, l.Account.ID)
	}
	return nil
}

// LockedPosition is proof that a unit of work holds the position's exclusive lock.
type LockedPosition struct {
	Position *model.Position
	Account  *LockedAccount
}

// NewLockedPosition is called by store implementations when the lock has been acquired.
func NewLockedPosition(account *LockedAccount, position *model.Position) *LockedPosition {
	return &LockedPosition{Position: position, Account: account}
}
