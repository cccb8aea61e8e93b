package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brokerledger/src/database"
	"brokerledger/src/model"
)

// TransactionSearchOptions filters an account statement.
type TransactionSearchOptions struct {
	AccountID     uint
	TypeCode      *model.TransactionTypeCode
	InstrumentID  *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// HistoryRepository serves read-only views of the ledger. It reads from the read-only
// replica when one is configured.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository() *HistoryRepository {
	logger.WithField("component", "HistoryRepository").
		Info("Creating new HistoryRepository with ReadOnlyDB")

	return &HistoryRepository{db: database.ReadDB()}
}

func NewHistoryRepositoryWithDB(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SearchTransactions returns matching transactions in commit order.
func (r *HistoryRepository) SearchTransactions(
	ctx context.Context,
	options TransactionSearchOptions,
) ([]model.Transaction, error) {

	query := r.db.WithContext(ctx).
		Preload("Instrument").
		Where("account_id = ?", options.AccountID)

	if options.TypeCode != nil {
		query = query.Where("transaction_type_code = ?", *options.TypeCode)
	}
	if options.InstrumentID != nil {
		query = query.Where("instrument_id = ?", *options.InstrumentID)
	}
	if options.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *options.CreatedAfter)
	}
	if options.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *options.CreatedBefore)
	}

	query = query.Order("id ASC")
	if options.Limit > 0 {
		query = query.Limit(options.Limit)
	}
	if options.Offset > 0 {
		query = query.Offset(options.Offset)
	}

	var txs []model.Transaction
	if err := query.Find(&txs).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "HistoryRepository",
			"op":         "SearchTransactions",
			"account_id": options.AccountID,
		}).WithError(err).Error("Failed to search transactions")

		return nil, translateError("search transactions", err)
	}
	return txs, nil
}

// ListPositions returns the account's positions with their instrument. Closed positions
// are included unless openOnly is set.
func (r *HistoryRepository) ListPositions(ctx context.Context, accountID uint, openOnly bool) ([]model.Position, error) {
	query := r.db.WithContext(ctx).
		Preload("Instrument").
		Where("account_id = ?", accountID)
	if openOnly {
		query = query.Where("is_open = ?", true)
	}

	var positions []model.Position
	if err := query.Order("id ASC").Find(&positions).Error; err != nil {
		return nil, translateError("list positions", err)
	}
	return positions, nil
}
