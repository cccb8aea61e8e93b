package trading

import (
	"fmt"
	"strings"

	"brokerledger/src/ledgererr"
	"brokerledger/src/model"
	"brokerledger/src/money"
)

type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ParseDirection accepts "buy" and "sell" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionBuy:
		return DirectionBuy, nil
	case DirectionSell:
		return DirectionSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ledgererr.ErrInvalidDirection, s)
	}
}

// Signed returns volume as a netting trade volume: positive for buys, negative for sells.
func (d Direction) Signed(volume money.Money) money.Money {
	if d == DirectionSell {
		return volume.Neg()
	}
	return volume
}

func (d Direction) TypeCode() model.TransactionTypeCode {
	if d == DirectionSell {
		return model.TransactionTypeSell
	}
	return model.TransactionTypeBuy
}
