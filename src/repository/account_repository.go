package repository

import (
	"context"
	"errors"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"brokerledger/src/database"
	"brokerledger/src/model"
	"brokerledger/src/money"
)

// AccountRepository opens and reads accounts. Balances are never written here.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository() *AccountRepository {
	logger.WithField("component", "AccountRepository").
		Info("Creating new AccountRepository with MainDB")

	return &AccountRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *AccountRepository) WithDB(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Open creates an account with a zero balance.
func (r *AccountRepository) Open(ctx context.Context, ownerID uint, name, currency string) (*model.Account, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = model.DefaultCurrency
	}
	account := &model.Account{
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(name),
		Currency: currency,
		Balance:  money.Zero,
	}

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "AccountRepository",
			"op":       "Open",
			"owner_id": ownerID,
		}).WithError(err).Error("Failed to open account")

		return nil, translateError("open account", err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "AccountRepository",
		"op":         "Open",
		"account_id": account.ID,
	}).Info("Account opened")

	return account, nil
}

// FindByID returns (nil, nil) if the account does not exist.
func (r *AccountRepository) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("find account", err)
	}
	return &account, nil
}

// ListByOwner returns the owner's accounts, oldest first.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, translateError("list accounts", err)
	}
	return accounts, nil
}
