// Package ledgerctl implements the operator commands of the ledgerctl binary.
package ledgerctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brokerledger/src/balance"
	"brokerledger/src/database"
	"brokerledger/src/locking"
	"brokerledger/src/model"
	"brokerledger/src/money"
	"brokerledger/src/repository"
	"brokerledger/src/trading"
)

type Ledger struct {
	Log    *logger.Entry
	DB     *gorm.DB
	Out    io.Writer
	Config trading.Config

	accounts    *repository.AccountRepository
	instruments *repository.InstrumentRepository
	history     *repository.HistoryRepository
	balance     *balance.Engine
	trading     *trading.Service
}

// Start wires the services on DB. Log, Out and Config default to the standard logger,
// stdout and the environment.
func (l *Ledger) Start() error {
	if l.DB == nil {
		return fmt.Errorf("ledgerctl: database not initialized")
	}
	if l.Log == nil {
		l.Log = logger.WithField("cmd", "ledgerctl")
	}
	if l.Out == nil {
		l.Out = os.Stdout
	}
	if l.Config.LockTimeout == 0 {
		l.Config = trading.GetConfig()
	}

	commission, err := l.Config.Commission()
	if err != nil {
		return err
	}

	store := repository.NewLedgerRepositoryWithDB(l.DB, locking.New(), l.Config.LockTimeout)
	l.accounts = (&repository.AccountRepository{}).WithDB(l.DB)
	l.instruments = repository.NewInstrumentRepositoryWithDB(l.DB)
	l.history = repository.NewHistoryRepositoryWithDB(l.DB)
	l.balance = balance.NewEngine(l.Log, store)
	l.trading = trading.NewService(l.Log, store, l.balance, commission)
	return nil
}

// Migrate brings the schema and the seeded enumerations up to date.
func (l *Ledger) Migrate() error {
	if err := database.Migrate(l.DB); err != nil {
		return err
	}
	_, err := fmt.Fprintln(l.Out, "schema up to date")
	return err
}

func (l *Ledger) OpenAccount(ctx context.Context, ownerID uint, name, currency string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("account name is required")
	}
	account, err := l.accounts.Open(ctx, ownerID, name, currency)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(l.Out, "opened account %d (%s)\n", account.ID, account)
	return err
}

// ListAccounts prints every account of the owner.
func (l *Ledger) ListAccounts(ctx context.Context, ownerID uint) error {
	accounts, err := l.accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		_, err = fmt.Fprintf(l.Out, "owner %d has no accounts\n", ownerID)
		return err
	}
	for _, account := range accounts {
		if _, err := fmt.Fprintf(l.Out, "%d\t%s\n", account.ID, account); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) ShowAccount(ctx context.Context, accountID uint) error {
	account, err := l.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %d not found", accountID)
	}
	_, err = fmt.Fprintf(l.Out, "%d\t%s\towner %d\n", account.ID, account, account.OwnerID)
	return err
}

// InstrumentInput carries the reference data of one instrument.
type InstrumentInput struct {
	Symbol        string
	Name          string
	Type          string
	Price         string
	ContractSize  string
	Digits        int
	BaseCurrency  string
	QuoteCurrency string
}

func (l *Ledger) AddInstrument(ctx context.Context, in InstrumentInput) error {
	if strings.TrimSpace(in.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}

	typ := &model.InstrumentType{Name: in.Type}
	if err := l.instruments.UpsertType(ctx, typ); err != nil {
		return err
	}

	price, err := money.Parse(in.Price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	contractSize, err := money.Parse(in.ContractSize)
	if err != nil {
		return fmt.Errorf("contract size: %w", err)
	}

	name := in.Name
	if name == "" {
		name = strings.ToUpper(in.Symbol)
	}
	instrument := &model.Instrument{
		Symbol:           in.Symbol,
		Name:             name,
		InstrumentTypeID: typ.ID,
		CurrentPrice:     price,
		ContractSize:     contractSize,
		Digits:           in.Digits,
		BaseCurrency:     strings.ToUpper(in.BaseCurrency),
		QuoteCurrency:    strings.ToUpper(in.QuoteCurrency),
	}
	if err := l.instruments.Upsert(ctx, instrument); err != nil {
		return err
	}

	stored, err := l.instruments.FindBySymbol(ctx, instrument.Symbol)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("instrument %s not found after upsert", instrument.Symbol)
	}
	_, err = fmt.Fprintf(l.Out, "instrument %s (%s) ready: price %s, contract size %s, digits %d\n",
		stored.Symbol, stored.InstrumentType.Name, stored.CurrentPrice, stored.ContractSize, stored.Digits)
	return err
}

func (l *Ledger) Deposit(ctx context.Context, accountID uint, amount, description string) error {
	value, err := money.Parse(amount)
	if err != nil {
		return err
	}
	account, err := l.balance.Deposit(ctx, accountID, value, description)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(l.Out, "deposited %s, balance %s\n", value.Display(account.Currency), account.Balance.Display(account.Currency))
	return err
}

func (l *Ledger) Withdraw(ctx context.Context, accountID uint, amount, description string) error {
	value, err := money.Parse(amount)
	if err != nil {
		return err
	}
	account, err := l.balance.Withdraw(ctx, accountID, value, description)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(l.Out, "withdrew %s, balance %s\n", value.Display(account.Currency), account.Balance.Display(account.Currency))
	return err
}

func (l *Ledger) Trade(ctx context.Context, accountID uint, symbol, direction, volume, price string) error {
	dir, err := trading.ParseDirection(direction)
	if err != nil {
		return err
	}
	vol, err := money.Parse(volume)
	if err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	px, err := money.Parse(price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}

	tx, err := l.trading.ExecuteTrade(ctx, accountID, symbol, dir, vol, px)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(l.Out, "#%d %s  cash %s  realized %s\n", tx.ID, tx, tx.CashDelta, styledPnL(tx.RealizedPnL))
	return err
}

func (l *Ledger) Positions(ctx context.Context, accountID uint, openOnly bool) error {
	positions, err := l.history.ListPositions(ctx, accountID, openOnly)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.Out, renderPositions(positions))
	return err
}

func (l *Ledger) History(ctx context.Context, accountID uint, limit int) error {
	txs, err := l.history.SearchTransactions(ctx, repository.TransactionSearchOptions{AccountID: accountID, Limit: limit})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.Out, renderTransactions(txs))
	return err
}

// Reconcile fails when the balance is not explained by the audit trail.
func (l *Ledger) Reconcile(ctx context.Context, accountID uint) error {
	rec, err := l.balance.Reconcile(ctx, accountID)
	if err != nil {
		return err
	}
	if !rec.Balanced() {
		return fmt.Errorf("account %d drift %s: balance %s, transactions sum to %s",
			accountID, rec.Drift(), rec.Balance, rec.Ledger)
	}
	_, err = fmt.Fprintf(l.Out, "account %d balanced: %s over %d transactions\n", accountID, rec.Balance, rec.Transactions)
	return err
}
