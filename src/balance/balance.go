// Package balance is the only writer of account balances. Deposits and withdrawals run in
// their own unit of work and leave one audit Transaction each; trade settlement runs
// inside the caller's unit of work under the account lock the caller already holds.
package balance

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"brokerledger/src/ledger"
	"brokerledger/src/ledgererr"
	"brokerledger/src/model"
	"brokerledger/src/money"
)

type Engine struct {
	logger *logrus.Entry
	store  ledger.Store
}

func NewEngine(logger *logrus.Entry, store ledger.Store) *Engine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Engine{logger: logger.WithField("component", "balance"), store: store}
}

// Deposit credits amount to the account and records a completed deposit.
func (e *Engine) Deposit(ctx context.Context, accountID uint, amount money.Money, description string) (*model.Account, error) {
	return e.move(ctx, accountID, amount, model.TransactionTypeDeposit, description)
}

// Withdraw debits amount from the account and records a completed withdrawal. It fails
// with *ledgererr.InsufficientFundsError when the balance does not cover amount.
func (e *Engine) Withdraw(ctx context.Context, accountID uint, amount money.Money, description string) (*model.Account, error) {
	return e.move(ctx, accountID, amount, model.TransactionTypeWithdrawal, description)
}

func (e *Engine) move(
	ctx context.Context,
	accountID uint,
	amount money.Money,
	code model.TransactionTypeCode,
	description string,
) (*model.Account, error) {

	log := e.logger.WithFields(logrus.Fields{
		"op":         code.String(),
		"account_id": accountID,
		"amount":     amount.String(),
	})

	if !amount.IsPositive() {
		err := ledgererr.InvalidAmount("%s amount must be positive, got %s", code, amount)
		log.WithError(err).Warn("rejected")
		return nil, err
	}

	delta := amount
	if code == model.TransactionTypeWithdrawal {
		delta = amount.Neg()
	}

	var snapshot model.Account
	err := e.store.WithinUnitOfWork(ctx, func(uow ledger.UnitOfWork) error {
		locked, err := uow.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if err := e.Settle(ctx, locked, delta); err != nil {
			return err
		}

		audit := &model.Transaction{
			AccountID:   accountID,
			TypeCode:    code,
			Volume:      money.Zero,
			Price:       amount,
			Commission:  money.Zero,
			CashDelta:   delta,
			RealizedPnL: money.Zero,
			Status:      model.TransactionStatusCompleted,
			Description: description,
		}
		if err := uow.AppendTransaction(ctx, audit); err != nil {
			return err
		}

		snapshot = *locked.Account
		return nil
	})
	if err != nil {
		if ledgererr.IsCallerError(err) {
			log.WithError(err).Warn("rejected")
		} else {
			log.WithError(err).Error("failed")
		}
		return nil, err
	}

	log.WithField("balance", snapshot.Balance.String()).Info("completed")
	return &snapshot, nil
}

// Settle applies a signed cash delta to an account the caller has locked. A debit larger
// than the balance fails with *ledgererr.InsufficientFundsError and changes nothing.
// Settle writes no audit record: the caller records the movement in its own Transaction.
func (e *Engine) Settle(ctx context.Context, account *ledger.LockedAccount, delta money.Money) error {
	if account == nil {
		return fmt.Errorf("%w: nil account token", ledgererr.ErrLockOrder)
	}
	uow := account.UnitOfWork()
	if err := account.HeldBy(uow); err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}

	acct := account.Account
	if delta.IsNegative() && acct.Balance.LessThan(delta.Abs()) {
		return &ledgererr.InsufficientFundsError{
			AccountID: acct.ID,
			Required:  delta.Abs().Decimal(),
			Available: acct.Balance.Decimal(),
		}
	}

	previous := acct.Balance
	acct.Balance = acct.Balance.Add(delta)
	if err := uow.SaveAccount(ctx, account); err != nil {
		acct.Balance = previous
		return err
	}
	return nil
}

// Reconciliation compares an account balance with the sum of its recorded cash movements.
type Reconciliation struct {
	AccountID    uint
	Balance      money.Money
	Ledger       money.Money
	Transactions int
}

// Drift is Balance minus Ledger; zero when the audit trail explains the balance.
func (r Reconciliation) Drift() money.Money {
	return r.Balance.Sub(r.Ledger)
}

func (r Reconciliation) Balanced() bool {
	return r.Drift().IsZero()
}

// Reconcile recomputes the balance from the account's completed transactions. The account
// is locked while reading so that no movement commits between the two reads.
func (e *Engine) Reconcile(ctx context.Context, accountID uint) (*Reconciliation, error) {
	var rec Reconciliation
	err := e.store.WithinUnitOfWork(ctx, func(uow ledger.UnitOfWork) error {
		locked, err := uow.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		txs, err := uow.ListTransactions(ctx, accountID)
		if err != nil {
			return err
		}

		rec = Reconciliation{AccountID: accountID, Balance: locked.Account.Balance, Ledger: money.Zero}
		for _, t := range txs {
			if t.Status != model.TransactionStatusCompleted {
				continue
			}
			rec.Ledger = rec.Ledger.Add(cashMovement(t))
			rec.Transactions++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !rec.Balanced() {
		e.logger.WithFields(logrus.Fields{
			"op":         "reconcile",
			"account_id": accountID,
			"balance":    rec.Balance.String(),
			"ledger":     rec.Ledger.String(),
		}).Error("balance drift detected")
	}
	return &rec, nil
}

func cashMovement(t model.Transaction) money.Money {
	switch t.TypeCode {
	case model.TransactionTypeDeposit:
		return t.Price
	case model.TransactionTypeWithdrawal:
		return t.Price.Neg()
	default:
		return t.CashDelta
	}
}
