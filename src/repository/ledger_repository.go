package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brokerledger/src/database"
	"brokerledger/src/ledger"
	"brokerledger/src/ledgererr"
	"brokerledger/src/locking"
	"brokerledger/src/model"
)

// LedgerRepository is the gorm implementation of ledger.Store.
//
// Exclusive access is taken twice: a process-local keyed lock serializes units of work
// inside this process (and is the only lock available on SQLite), and SELECT ... FOR
// UPDATE holds the row lock in Postgres against other processes.
type LedgerRepository struct {
	db          *gorm.DB
	locks       *locking.Keyed
	lockTimeout time.Duration
}

var _ ledger.Store = (*LedgerRepository)(nil)

// NewLedgerRepository creates a store on the main read/write database.
func NewLedgerRepository(locks *locking.Keyed, lockTimeout time.Duration) *LedgerRepository {
	logger.WithField("component", "LedgerRepository").
		Info("Creating new LedgerRepository with MainDB")

	return NewLedgerRepositoryWithDB(database.MainDB, locks, lockTimeout)
}

// NewLedgerRepositoryWithDB allows overriding the underlying *gorm.DB instance.
func NewLedgerRepositoryWithDB(db *gorm.DB, locks *locking.Keyed, lockTimeout time.Duration) *LedgerRepository {
	if locks == nil {
		locks = locking.New()
	}
	return &LedgerRepository{db: db, locks: locks, lockTimeout: lockTimeout}
}

// WithinUnitOfWork implements ledger.Store.
func (r *LedgerRepository) WithinUnitOfWork(ctx context.Context, fn func(uow ledger.UnitOfWork) error) error {
	uow := &gormUnitOfWork{
		repo:      r,
		accounts:  make(map[uint]*ledger.LockedAccount),
		positions: make(map[string]*ledger.LockedPosition),
	}
	// runs after commit or rollback
	defer uow.releaseAll()

	var fnErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow.tx = tx
		fnErr = fn(uow)
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "WithinUnitOfWork",
		}).WithError(err).Error("Failed to commit unit of work")

		return translateError("commit unit of work", err)
	}
	return nil
}

type gormUnitOfWork struct {
	repo      *LedgerRepository
	tx        *gorm.DB
	releases  []func()
	accounts  map[uint]*ledger.LockedAccount
	positions map[string]*ledger.LockedPosition
}

var _ ledger.UnitOfWork = (*gormUnitOfWork)(nil)

func (u *gormUnitOfWork) acquire(ctx context.Context, key string) error {
	release, err := u.repo.locks.AcquireTimeout(ctx, key, u.repo.lockTimeout)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "acquire",
			"key":  key,
		}).WithError(err).Warn("Lock not acquired")

		return ledgererr.ConcurrencyConflict("lock "+key, err)
	}
	u.releases = append(u.releases, release)
	return nil
}

func (u *gormUnitOfWork) releaseAll() {
	for i := len(u.releases) - 1; i >= 0; i-- {
		u.releases[i]()
	}
	u.releases = nil
}

func (u *gormUnitOfWork) LockAccount(ctx context.Context, accountID uint) (*ledger.LockedAccount, error) {
	if held, ok := u.accounts[accountID]; ok {
		return held, nil
	}

	if err := u.acquire(ctx, locking.AccountKey(accountID)); err != nil {
		return nil, err
	}

	var account model.Account
	err := u.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ledgererr.ErrAccountNotFound, accountID)
		}
		logger.WithFields(map[string]interface{}{
			"repo":       "LedgerRepository",
			"op":         "LockAccount",
			"account_id": accountID,
		}).WithError(err).Error("Failed to lock account")

		return nil, translateError("lock account", err)
	}

	locked := ledger.NewLockedAccount(u, &account)
	u.accounts[accountID] = locked
	return locked, nil
}

func (u *gormUnitOfWork) LockOrCreatePosition(
	ctx context.Context,
	account *ledger.LockedAccount,
	instrumentID uint,
) (*ledger.LockedPosition, error) {

	if err := account.HeldBy(u); err != nil {
		return nil, err
	}
	accountID := account.Account.ID
	key := locking.PositionKey(accountID, instrumentID)
	if held, ok := u.positions[key]; ok {
		return held, nil
	}

	if err := u.acquire(ctx, key); err != nil {
		return nil, err
	}

	position, err := u.selectPositionForUpdate(ctx, accountID, instrumentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := model.Position{AccountID: accountID, InstrumentID: instrumentID}
		err = u.tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&created).Error
		if err == nil {
			logger.WithFields(map[string]interface{}{
				"repo":          "LedgerRepository",
				"op":            "LockOrCreatePosition",
				"account_id":    accountID,
				"instrument_id": instrumentID,
			}).Debug("Created flat position")

			position, err = u.selectPositionForUpdate(ctx, accountID, instrumentID)
		}
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":          "LedgerRepository",
			"op":            "LockOrCreatePosition",
			"account_id":    accountID,
			"instrument_id": instrumentID,
		}).WithError(err).Error("Failed to lock position")

		return nil, translateError("lock position", err)
	}

	locked := ledger.NewLockedPosition(account, position)
	u.positions[key] = locked
	return locked, nil
}

func (u *gormUnitOfWork) selectPositionForUpdate(ctx context.Context, accountID, instrumentID uint) (*model.Position, error) {
	var position model.Position
	err := u.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND instrument_id = ?", accountID, instrumentID).
		First(&position).Error
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (u *gormUnitOfWork) FindInstrumentBySymbol(ctx context.Context, symbol string) (*model.Instrument, error) {
	var instrument model.Instrument
	err := u.tx.WithContext(ctx).
		Where("symbol = ?", symbol).
		First(&instrument).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ledgererr.ErrInstrumentNotFound, symbol)
		}
		return nil, translateError("find instrument", err)
	}
	return &instrument, nil
}

func (u *gormUnitOfWork) SaveAccount(ctx context.Context, account *ledger.LockedAccount) error {
	if err := account.HeldBy(u); err != nil {
		return err
	}
	err := u.tx.WithContext(ctx).Save(account.Account).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "LedgerRepository",
			"op":         "SaveAccount",
			"account_id": account.Account.ID,
		}).WithError(err).Error("Failed to save account")

		return translateError("save account", err)
	}
	return nil
}

func (u *gormUnitOfWork) SavePosition(ctx context.Context, position *ledger.LockedPosition) error {
	if position == nil {
		return fmt.Errorf("%w: nil position token", ledgererr.ErrLockOrder)
	}
	if err := position.Account.HeldBy(u); err != nil {
		return err
	}
	p := position.Position
	p.IsOpen = !p.Volume.IsZero()

	err := u.tx.WithContext(ctx).Omit(clause.Associations).Save(p).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":        "LedgerRepository",
			"op":          "SavePosition",
			"position_id": p.ID,
		}).WithError(err).Error("Failed to save position")

		return translateError("save position", err)
	}
	return nil
}

func (u *gormUnitOfWork) AppendTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID != 0 {
		return ledgererr.StoreFailure("append transaction", fmt.Errorf("transaction %d already persisted", t.ID))
	}
	if t.Reference == "" {
		t.Reference = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.TransactionStatusCompleted
	}

	err := u.tx.WithContext(ctx).Omit(clause.Associations).Create(t).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "LedgerRepository",
			"op":         "AppendTransaction",
			"account_id": t.AccountID,
			"type":       t.TypeCode.String(),
		}).WithError(err).Error("Failed to append transaction")

		return translateError("append transaction", err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":           "LedgerRepository",
		"op":             "AppendTransaction",
		"transaction_id": t.ID,
		"account_id":     t.AccountID,
		"type":           t.TypeCode.String(),
	}).Debug("Transaction staged")

	return nil
}

func (u *gormUnitOfWork) ListTransactions(ctx context.Context, accountID uint) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := u.tx.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, translateError("list transactions", err)
	}
	return txs, nil
}
