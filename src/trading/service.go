// Package trading executes trades: one unit of work locks the account and the position,
// nets the trade, settles its cash and records it.
package trading

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"brokerledger/src/balance"
	"brokerledger/src/ledger"
	"brokerledger/src/ledgererr"
	"brokerledger/src/model"
	"brokerledger/src/money"
	"brokerledger/src/netting"
)

type Service struct {
	logger     *logrus.Entry
	store      ledger.Store
	balance    *balance.Engine
	commission CommissionFunc
}

func NewService(logger *logrus.Entry, store ledger.Store, engine *balance.Engine, commission CommissionFunc) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if commission == nil {
		commission = ZeroCommission
	}

	return &Service{
		logger:     logger.WithField("component", "trading"),
		store:      store,
		balance:    engine,
		commission: commission,
	}
}

// ExecuteTrade buys or sells volume of symbol at price for the account and returns the
// recorded trade. Nothing is persisted unless every step succeeds.
func (s *Service) ExecuteTrade(
	ctx context.Context,
	accountID uint,
	symbol string,
	direction Direction,
	volume money.Money,
	price money.Money,
) (*model.Transaction, error) {

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log := s.logger.WithFields(logrus.Fields{
		"op":         "execute_trade",
		"account_id": accountID,
		"symbol":     symbol,
		"direction":  string(direction),
		"volume":     volume.String(),
		"price":      price.String(),
	})

	direction, err := validateTrade(direction, volume, price)
	if err != nil {
		log.WithError(err).Warn("trade rejected")
		return nil, err
	}

	var (
		trade  *model.Transaction
		result netting.Result
	)
	err = s.store.WithinUnitOfWork(ctx, func(uow ledger.UnitOfWork) error {
		account, err := uow.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		instrument, err := uow.FindInstrumentBySymbol(ctx, symbol)
		if err != nil {
			return err
		}

		position, err := uow.LockOrCreatePosition(ctx, account, instrument.ID)
		if err != nil {
			return err
		}

		fee, err := s.commission(ctx, instrument, volume, price)
		if err != nil {
			return err
		}
		if fee.IsNegative() {
			return ledgererr.InvalidAmount("commission hook returned %s", fee)
		}

		pos := position.Position
		result, err = netting.Apply(
			netting.State{Volume: pos.Volume, AveragePrice: pos.AveragePrice},
			netting.Trade{Volume: direction.Signed(volume), Price: price, Commission: fee},
		)
		if err != nil {
			return err
		}

		if err := s.balance.Settle(ctx, account, result.CashDelta); err != nil {
			return err
		}

		pos.Volume = result.Position.Volume
		pos.AveragePrice = result.Position.AveragePrice
		pos.RealizedPnL = pos.RealizedPnL.Add(result.RealizedPnL)
		if err := uow.SavePosition(ctx, position); err != nil {
			return err
		}

		trade = &model.Transaction{
			AccountID:    accountID,
			InstrumentID: &instrument.ID,
			Instrument:   instrument,
			TypeCode:     direction.TypeCode(),
			Volume:       volume,
			Price:        price,
			Commission:   fee,
			CashDelta:    result.CashDelta,
			RealizedPnL:  result.RealizedPnL,
			Status:       model.TransactionStatusCompleted,
			PositionID:   &pos.ID,
		}
		return uow.AppendTransaction(ctx, trade)
	})
	if err != nil {
		if ledgererr.IsCallerError(err) {
			log.WithError(err).Warn("trade rejected")
		} else {
			log.WithError(err).Error("trade failed")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"transaction_id": trade.ID,
		"case":           string(result.Case),
		"cash_delta":     result.CashDelta.String(),
		"realized_pnl":   result.RealizedPnL.String(),
	}).Info("trade executed")

	return trade, nil
}

func validateTrade(direction Direction, volume, price money.Money) (Direction, error) {
	d, err := ParseDirection(string(direction))
	if err != nil {
		return "", err
	}
	if !volume.IsPositive() {
		return "", ledgererr.InvalidAmount("volume must be positive, got %s", volume)
	}
	if !price.IsPositive() {
		return "", ledgererr.InvalidAmount("price must be positive, got %s", price)
	}
	return d, nil
}
