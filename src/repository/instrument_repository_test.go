package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerledger/src/database/databasetest"
	"brokerledger/src/model"
	"brokerledger/src/money"
)

func TestInstrumentRepositoryUpsert(t *testing.T) {
	db := databasetest.NewSQLite(t)
	repo := NewInstrumentRepositoryWithDB(db)
	ctx := context.Background()

	forex := &model.InstrumentType{Name: "Forex", Description: "currency pairs"}
	require.NoError(t, repo.UpsertType(ctx, forex))
	require.NotZero(t, forex.ID)

	again := &model.InstrumentType{Name: "Forex", Description: "spot fx"}
	require.NoError(t, repo.UpsertType(ctx, again))
	assert.Equal(t, forex.ID, again.ID)

	instrument := &model.Instrument{
		Symbol:           " eurusd",
		Name:             "Euro / US Dollar",
		InstrumentTypeID: forex.ID,
		CurrentPrice:     money.RequireFromString("1.08"),
		ContractSize:     money.FromInt(100000),
		Digits:           5,
		BaseCurrency:     "EUR",
		QuoteCurrency:    "USD",
	}
	require.NoError(t, repo.Upsert(ctx, instrument))
	assert.Equal(t, "EURUSD", instrument.Symbol)

	refreshed := &model.Instrument{
		Symbol:           "EURUSD",
		Name:             "Euro / US Dollar",
		InstrumentTypeID: forex.ID,
		CurrentPrice:     money.RequireFromString("1.09"),
		ContractSize:     money.FromInt(100000),
		Digits:           5,
	}
	require.NoError(t, repo.Upsert(ctx, refreshed))

	found, err := repo.FindBySymbol(ctx, "EURUSD")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "1.09", found.CurrentPrice.String())
	assert.Equal(t, "Forex", found.InstrumentType.Name)

	var count int64
	require.NoError(t, db.Model(&model.Instrument{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	found, err = repo.FindBySymbol(ctx, " eurusd ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "EURUSD", found.Symbol)

	missing, err := repo.FindBySymbol(ctx, "XAUUSD")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
