// Package netting computes how a trade changes a netting position and how much cash it
// moves. It performs no I/O and takes no locks.
package netting

import (
	"fmt"

	"brokerledger/src/ledgererr"
	"brokerledger/src/money"
)

// Case names the branch a trade took.
type Case string

const (
	CaseOpen       Case = "open"       // flat position, trade opens it
	CaseAccumulate Case = "accumulate" // trade adds to the same side
	CaseReduce     Case = "reduce"     // trade shrinks the position, same side remains
	CaseClose      Case = "close"      // trade brings the position exactly to flat
	CaseFlip       Case = "flip"       // trade closes the position and opens the other side
)

// State is a position's volume and average entry price. Volume is signed.
type State struct {
	Volume       money.Money
	AveragePrice money.Money
}

// IsOpen reports whether the position has exposure.
func (s State) IsOpen() bool {
	return !s.Volume.IsZero()
}

// Trade is an execution against a position. Volume is signed: positive buys, negative
// sells. Price must be positive and Commission non-negative.
type Trade struct {
	Volume     money.Money
	Price      money.Money
	Commission money.Money
}

// Result is the outcome of applying a Trade.
type Result struct {
	Position State
	Case     Case

	// RealizedPnL is zero unless exposure was reduced.
	RealizedPnL money.Money

	// CashDelta is the signed amount to apply to the account: positive credits, negative
	// debits. Commission is always included.
	CashDelta money.Money

	// Closed is the volume taken off the existing position, Opened the volume added on
	// the trade's side. Both are unsigned.
	Closed money.Money
	Opened money.Money
}

// Apply nets trade into pos.
//
// Same side or flat: the average price becomes the volume-weighted mean. Buying pays the
// full notional; opening or adding to a short costs only the commission (short proceeds
// and margin are not modelled).
//
// Opposite side: realized P&L is (price - avg) * reduced volume, signed by the position
// side. Closing long exposure credits price * reduced volume; closing short exposure
// settles only the realized P&L. Any excess volume flips the position at the trade price;
// flipping into a long pays the excess notional, flipping into a short costs nothing.
func Apply(pos State, trade Trade) (Result, error) {
	if err := validate(pos, trade); err != nil {
		return Result{}, err
	}

	cv, tv := pos.Volume, trade.Volume
	if cv.IsZero() || cv.Sign() == tv.Sign() {
		return accumulate(pos, trade)
	}
	return reduce(pos, trade)
}

func validate(pos State, trade Trade) error {
	if trade.Volume.IsZero() {
		return ledgererr.InvalidAmount("trade volume must be non-zero")
	}
	if !trade.Price.IsPositive() {
		return ledgererr.InvalidAmount("price must be positive, got %s", trade.Price)
	}
	if trade.Commission.IsNegative() {
		return ledgererr.InvalidAmount("commission must not be negative, got %s", trade.Commission)
	}
	if pos.IsOpen() && pos.AveragePrice.IsNegative() {
		return ledgererr.InvalidAmount("position average price is negative: %s", pos.AveragePrice)
	}
	return nil
}

func accumulate(pos State, trade Trade) (Result, error) {
	cv, tv := pos.Volume, trade.Volume
	total := cv.Add(tv)

	avg := money.Zero
	if !total.IsZero() {
		var err error
		avg, err = money.WeightedPrice(cv, pos.AveragePrice, tv, trade.Price)
		if err != nil {
			return Result{}, fmt.Errorf("average price: %w", err)
		}
	}

	cash := trade.Commission.Neg()
	if tv.IsPositive() {
		cash = cash.Sub(tv.Mul(trade.Price))
	}

	c := CaseAccumulate
	if cv.IsZero() {
		c = CaseOpen
	}

	return Result{
		Position:    State{Volume: total, AveragePrice: avg},
		Case:        c,
		RealizedPnL: money.Zero,
		CashDelta:   cash,
		Closed:      money.Zero,
		Opened:      tv.Abs(),
	}, nil
}

func reduce(pos State, trade Trade) (Result, error) {
	cv, tv, p := pos.Volume, trade.Volume, trade.Price
	wasLong := cv.IsPositive()

	reduction := money.Min(cv.Abs(), tv.Abs())
	remainder := tv.Abs().Sub(reduction)

	side := int64(1)
	if !wasLong {
		side = -1
	}
	pnl := p.Sub(pos.AveragePrice).Mul(reduction).MulInt(side)

	closeCash := pnl
	if wasLong {
		closeCash = p.Mul(reduction)
	}

	openCash := money.Zero
	if remainder.IsPositive() && !wasLong {
		openCash = p.Mul(remainder).Neg()
	}

	res := Result{
		RealizedPnL: pnl,
		CashDelta:   closeCash.Add(openCash).Sub(trade.Commission),
		Closed:      reduction,
		Opened:      remainder,
	}

	switch {
	case remainder.IsPositive():
		vol := remainder
		if tv.IsNegative() {
			vol = vol.Neg()
		}
		res.Case = CaseFlip
		res.Position = State{Volume: vol, AveragePrice: p}
	default:
		// move toward zero by the reduced volume, never past it
		vol := cv.Sub(reduction.MulInt(side))
		avg := pos.AveragePrice
		res.Case = CaseReduce
		if vol.IsZero() {
			avg = money.Zero
			res.Case = CaseClose
		}
		res.Position = State{Volume: vol, AveragePrice: avg}
	}

	return res, nil
}

// Unrealized returns the open P&L of pos marked at price mark.
func Unrealized(pos State, mark money.Money) money.Money {
	if !pos.IsOpen() {
		return money.Zero
	}
	return mark.Sub(pos.AveragePrice).Mul(pos.Volume)
}
