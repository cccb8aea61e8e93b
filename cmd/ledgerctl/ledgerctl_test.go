package ledgerctl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerledger/src/database/databasetest"
	"brokerledger/src/ledgererr"
	"brokerledger/src/model"
	"brokerledger/src/trading"
)

func newLedger(t *testing.T) (*Ledger, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	l := &Ledger{
		DB:     databasetest.NewSQLite(t),
		Out:    out,
		Config: trading.Config{LockTimeout: time.Second, CommissionFlat: "0.5"},
	}
	require.NoError(t, l.Start())
	return l, out
}

func TestLedgerWorkflow(t *testing.T) {
	l, out := newLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Migrate())
	assert.Contains(t, out.String(), "schema up to date")

	require.NoError(t, l.OpenAccount(ctx, 1, "alice", "usd"))
	assert.Contains(t, out.String(), "opened account 1 (alice - $0.00)")

	require.NoError(t, l.AddInstrument(ctx, InstrumentInput{
		Symbol: "eurusd", Type: "Forex", Price: "1.0845", ContractSize: "100000", Digits: 5,
		BaseCurrency: "eur", QuoteCurrency: "usd",
	}))
	assert.Contains(t, out.String(), "instrument EURUSD (Forex) ready: price 1.0845, contract size 100000, digits 5")

	require.NoError(t, l.Deposit(ctx, 1, "10000", "funding"))
	assert.Contains(t, out.String(), "deposited $10,000.00, balance $10,000.00")

	require.NoError(t, l.Trade(ctx, 1, "EURUSD", "buy", "10", "100"))
	require.NoError(t, l.Trade(ctx, 1, "eurusd", "SELL", "4", "110"))
	assert.Contains(t, out.String(), "SELL 4 EURUSD @ 110")

	require.NoError(t, l.Withdraw(ctx, 1, "100", ""))
	assert.Contains(t, out.String(), "balance $9,339.00")

	out.Reset()
	require.NoError(t, l.Positions(ctx, 1, true))
	assert.Contains(t, out.String(), "EURUSD")
	assert.Contains(t, out.String(), "long")
	assert.Contains(t, out.String(), " 6 ")
	assert.Contains(t, out.String(), "-593.493")

	out.Reset()
	require.NoError(t, l.History(ctx, 1, 10))
	assert.Contains(t, out.String(), "DEPOSIT 0 CASH @ 10000")
	assert.Contains(t, out.String(), "BUY 10 EURUSD @ 100")

	out.Reset()
	require.NoError(t, l.Reconcile(ctx, 1))
	assert.Contains(t, out.String(), "account 1 balanced: 9339 over 4 transactions")

	out.Reset()
	require.NoError(t, l.ShowAccount(ctx, 1))
	assert.Contains(t, out.String(), "alice - $9,339.00")

	out.Reset()
	require.NoError(t, l.ListAccounts(ctx, 1))
	assert.Contains(t, out.String(), "1\talice - $9,339.00")

	out.Reset()
	require.NoError(t, l.ListAccounts(ctx, 7))
	assert.Contains(t, out.String(), "owner 7 has no accounts")
}

func TestLedgerErrors(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	require.NoError(t, l.OpenAccount(ctx, 1, "bob", ""))

	require.ErrorIs(t, l.Deposit(ctx, 1, "1.123456789", ""), ledgererr.ErrInvalidAmount)
	require.ErrorIs(t, l.Withdraw(ctx, 1, "5", ""), ledgererr.ErrInsufficientFunds)
	require.ErrorIs(t, l.Trade(ctx, 1, "EURUSD", "hold", "1", "1"), ledgererr.ErrInvalidDirection)
	require.ErrorIs(t, l.Trade(ctx, 1, "EURUSD", "buy", "1", "1"), ledgererr.ErrInstrumentNotFound)
	require.Error(t, l.OpenAccount(ctx, 1, " ", ""))
	require.Error(t, l.ShowAccount(ctx, 42))

	require.NoError(t, l.DB.Model(&model.Account{}).Where("id = ?", 1).Update("balance", "3").Error)
	require.Error(t, l.Reconcile(ctx, 1))
}

func TestStartRequiresDB(t *testing.T) {
	require.Error(t, (&Ledger{}).Start())
}
