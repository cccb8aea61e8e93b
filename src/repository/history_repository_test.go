package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerledger/src/database/databasetest"
	"brokerledger/src/model"
	"brokerledger/src/money"
)

func TestHistorySearchTransactionsSQL(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewHistoryRepositoryWithDB(mockDB)

	createdAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	code := model.TransactionTypeDeposit

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "transactions" WHERE account_id = $1 AND transaction_type_code = $2 AND created_at >= $3 ORDER BY id ASC LIMIT $4`)).
		WithArgs(uint(3), code, createdAt, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "transaction_type_code", "price", "created_at"}).
			AddRow(1, 3, 100, "250", createdAt))

	results, err := repo.SearchTransactions(context.Background(), TransactionSearchOptions{
		AccountID:    3,
		TypeCode:     &code,
		CreatedAfter: &createdAt,
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("unexpected error searching transactions: %v", err)
	}
	if len(results) != 1 || !results[0].Price.Equal(money.FromInt(250)) {
		t.Fatalf("unexpected transactions: %+v", results)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestHistoryOnSQLite(t *testing.T) {
	db := databasetest.NewSQLite(t)
	ctx := context.Background()
	account := databasetest.CreateAccount(t, db, "main")
	eurusd := databasetest.CreateInstrument(t, db, "EURUSD")
	gbpusd := databasetest.CreateInstrument(t, db, "GBPUSD")

	rows := []model.Transaction{
		{Reference: "r1", AccountID: account.ID, TypeCode: model.TransactionTypeDeposit, Price: money.FromInt(1000), Status: model.TransactionStatusCompleted},
		{Reference: "r2", AccountID: account.ID, InstrumentID: &eurusd.ID, TypeCode: model.TransactionTypeBuy, Volume: money.FromInt(2), Price: money.FromInt(100), Status: model.TransactionStatusCompleted},
		{Reference: "r3", AccountID: account.ID, InstrumentID: &gbpusd.ID, TypeCode: model.TransactionTypeSell, Volume: money.FromInt(1), Price: money.FromInt(90), Status: model.TransactionStatusCompleted},
		{Reference: "r4", AccountID: account.ID + 1, TypeCode: model.TransactionTypeDeposit, Price: money.FromInt(5), Status: model.TransactionStatusCompleted},
	}
	for i := range rows {
		require.NoError(t, db.Omit("Instrument", "TransactionType").Create(&rows[i]).Error)
	}

	positions := []model.Position{
		{AccountID: account.ID, InstrumentID: eurusd.ID, Volume: money.FromInt(2), AveragePrice: money.FromInt(100), IsOpen: true},
		{AccountID: account.ID, InstrumentID: gbpusd.ID},
	}
	for i := range positions {
		require.NoError(t, db.Omit("Instrument").Create(&positions[i]).Error)
	}

	repo := NewHistoryRepositoryWithDB(db)

	t.Run("statement in commit order", func(t *testing.T) {
		txs, err := repo.SearchTransactions(ctx, TransactionSearchOptions{AccountID: account.ID})
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, "r1", txs[0].Reference)
		assert.Equal(t, "DEPOSIT 0 CASH @ 1000", txs[0].String())
		require.NotNil(t, txs[1].Instrument)
		assert.Equal(t, "BUY 2 EURUSD @ 100", txs[1].String())
	})

	t.Run("filters by instrument", func(t *testing.T) {
		txs, err := repo.SearchTransactions(ctx, TransactionSearchOptions{AccountID: account.ID, InstrumentID: &gbpusd.ID})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, model.TransactionTypeSell, txs[0].TypeCode)
	})

	t.Run("paginates", func(t *testing.T) {
		txs, err := repo.SearchTransactions(ctx, TransactionSearchOptions{AccountID: account.ID, Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "r2", txs[0].Reference)
	})

	t.Run("positions", func(t *testing.T) {
		all, err := repo.ListPositions(ctx, account.ID, false)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		open, err := repo.ListPositions(ctx, account.ID, true)
		require.NoError(t, err)
		require.Len(t, open, 1)
		require.NotNil(t, open[0].Instrument)
		assert.Equal(t, "EURUSD", open[0].Instrument.Symbol)
		assert.Equal(t, model.PositionSideLong, open[0].Side())
	})
}
