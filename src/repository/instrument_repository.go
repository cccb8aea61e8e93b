package repository

import (
	"context"
	"errors"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"brokerledger/src/database"
	"brokerledger/src/model"
)

// InstrumentRepository reads reference data and lets fixtures load it. The ledger never
// creates instruments as a side effect of trading.
type InstrumentRepository struct {
	db *gorm.DB
}

func NewInstrumentRepository() *InstrumentRepository {
	return &InstrumentRepository{db: database.MainDB}
}

func NewInstrumentRepositoryWithDB(db *gorm.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// UpsertType creates the instrument type or returns the existing one with that name.
func (r *InstrumentRepository) UpsertType(ctx context.Context, t *model.InstrumentType) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).
		Create(t).Error
	if err != nil {
		return translateError("upsert instrument type", err)
	}
	if t.ID == 0 {
		return translateError("reload instrument type",
			r.db.WithContext(ctx).Where("name = ?", t.Name).First(t).Error)
	}
	return nil
}

// Upsert creates the instrument or refreshes its descriptive fields when the symbol
// already exists.
func (r *InstrumentRepository) Upsert(ctx context.Context, instrument *model.Instrument) error {
	instrument.Symbol = strings.ToUpper(strings.TrimSpace(instrument.Symbol))

	logger.WithFields(map[string]interface{}{
		"repo":   "InstrumentRepository",
		"op":     "Upsert",
		"symbol": instrument.Symbol,
	}).Debug("Upserting instrument")

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"instrument_type_id",
				"current_price",
				"contract_size",
				"digits",
				"base_currency",
				"quote_currency",
			}),
		}).
		Create(instrument).Error
	if err != nil {
		return translateError("upsert instrument", err)
	}
	return nil
}

// FindBySymbol returns (nil, nil) if the symbol is unknown. Symbols match
// case-insensitively, as Upsert stores them upper-cased.
func (r *InstrumentRepository) FindBySymbol(ctx context.Context, symbol string) (*model.Instrument, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var instrument model.Instrument
	err := r.db.WithContext(ctx).
		Preload("InstrumentType").
		Where("symbol = ?", symbol).
		First(&instrument).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("find instrument", err)
	}
	return &instrument, nil
}
