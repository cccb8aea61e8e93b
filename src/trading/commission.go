package trading

import (
	"context"

	"brokerledger/src/model"
	"brokerledger/src/money"
)

// CommissionFunc returns the fee charged for a trade. It must not be negative.
type CommissionFunc func(ctx context.Context, instrument *model.Instrument, volume, price money.Money) (money.Money, error)

// ZeroCommission charges nothing.
func ZeroCommission(context.Context, *model.Instrument, money.Money, money.Money) (money.Money, error) {
	return money.Zero, nil
}

// FlatCommission charges fee on every trade regardless of size.
func FlatCommission(fee money.Money) CommissionFunc {
	return func(context.Context, *model.Instrument, money.Money, money.Money) (money.Money, error) {
		return fee, nil
	}
}
