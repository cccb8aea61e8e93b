// Package databasetest opens throwaway migrated databases for tests.
package databasetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brokerledger/src/database"
	"brokerledger/src/model"
	"brokerledger/src/money"
)

// NewSQLite returns a migrated in-memory SQLite database private to the test.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := database.Open(database.DriverSQLite, dsn, 1, 1)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateAccount inserts an empty USD account.
func CreateAccount(t testing.TB, db *gorm.DB, name string) *model.Account {
	t.Helper()

	account := &model.Account{OwnerID: 1, Name: name, Currency: model.DefaultCurrency}
	require.NoError(t, db.Create(account).Error)
	return account
}

// CreateInstrument inserts a forex instrument with the given symbol.
func CreateInstrument(t testing.TB, db *gorm.DB, symbol string) *model.Instrument {
	t.Helper()

	typ := model.InstrumentType{Name: "Forex"}
	require.NoError(t, db.Where(model.InstrumentType{Name: typ.Name}).FirstOrCreate(&typ).Error)

	instrument := &model.Instrument{
		Symbol:           strings.ToUpper(symbol),
		Name:             symbol,
		InstrumentTypeID: typ.ID,
		CurrentPrice:     money.FromInt(100),
		ContractSize:     money.FromInt(1),
		Digits:           2,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(instrument).Error)
	return instrument
}
