package netting

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"brokerledger/src/ledgererr"
	"brokerledger/src/money"
)

func m(s string) money.Money { return money.RequireFromString(s) }

func flat() State { return State{} }

func TestApplyScenarios(t *testing.T) {
	tests := []struct {
		name     string
		pos      State
		trade    Trade
		wantCase Case
		wantVol  string
		wantAvg  string
		wantPnL  string
		wantCash string
	}{
		{
			name:     "buy from flat",
			pos:      flat(),
			trade:    Trade{Volume: m("10"), Price: m("100")},
			wantCase: CaseOpen,
			wantVol:  "10", wantAvg: "100", wantPnL: "0", wantCash: "-1000",
		},
		{
			name:     "accumulate long averages price",
			pos:      State{Volume: m("10"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("10"), Price: m("110")},
			wantCase: CaseAccumulate,
			wantVol:  "20", wantAvg: "105", wantPnL: "0", wantCash: "-1100",
		},
		{
			name:     "partial close keeps average",
			pos:      State{Volume: m("20"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("-10"), Price: m("120")},
			wantCase: CaseReduce,
			wantVol:  "10", wantAvg: "100", wantPnL: "200", wantCash: "1200",
		},
		{
			name:     "full close resets average",
			pos:      State{Volume: m("10"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("-10"), Price: m("90")},
			wantCase: CaseClose,
			wantVol:  "0", wantAvg: "0", wantPnL: "-100", wantCash: "900",
		},
		{
			name:     "flip long to short",
			pos:      State{Volume: m("10"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("-15"), Price: m("110")},
			wantCase: CaseFlip,
			wantVol:  "-5", wantAvg: "110", wantPnL: "100", wantCash: "1100",
		},
		{
			name:     "open short costs commission only",
			pos:      flat(),
			trade:    Trade{Volume: m("-5"), Price: m("100"), Commission: m("1.5")},
			wantCase: CaseOpen,
			wantVol:  "-5", wantAvg: "100", wantPnL: "0", wantCash: "-1.5",
		},
		{
			name:     "add to short averages price",
			pos:      State{Volume: m("-5"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("-15"), Price: m("120")},
			wantCase: CaseAccumulate,
			wantVol:  "-20", wantAvg: "115", wantPnL: "0", wantCash: "0",
		},
		{
			name:     "cover short at a profit settles pnl only",
			pos:      State{Volume: m("-10"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("4"), Price: m("90")},
			wantCase: CaseReduce,
			wantVol:  "-6", wantAvg: "100", wantPnL: "40", wantCash: "40",
		},
		{
			name:     "cover short at a loss debits pnl",
			pos:      State{Volume: m("-10"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("10"), Price: m("110")},
			wantCase: CaseClose,
			wantVol:  "0", wantAvg: "0", wantPnL: "-100", wantCash: "-100",
		},
		{
			name:     "flip short to long pays remainder notional",
			pos:      State{Volume: m("-10"), AveragePrice: m("100")},
			trade:    Trade{Volume: m("15"), Price: m("90"), Commission: m("2")},
			wantCase: CaseFlip,
			wantVol:  "5", wantAvg: "90", wantPnL: "100", wantCash: "-352",
		},
		{
			name:     "fractional forex buy",
			pos:      flat(),
			trade:    Trade{Volume: m("100"), Price: m("1.1")},
			wantCase: CaseOpen,
			wantVol:  "100", wantAvg: "1.1", wantPnL: "0", wantCash: "-110",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.pos, tt.trade)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCase, got.Case)
			assert.Equal(t, tt.wantVol, got.Position.Volume.String(), "volume")
			assert.Equal(t, tt.wantAvg, got.Position.AveragePrice.String(), "average price")
			assert.Equal(t, tt.wantPnL, got.RealizedPnL.String(), "realized pnl")
			assert.Equal(t, tt.wantCash, got.CashDelta.String(), "cash delta")
		})
	}
}

func TestApplyRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		pos   State
		trade Trade
	}{
		{name: "zero volume", pos: flat(), trade: Trade{Volume: money.Zero, Price: m("1")}},
		{name: "zero price", pos: flat(), trade: Trade{Volume: m("1"), Price: money.Zero}},
		{name: "negative price", pos: flat(), trade: Trade{Volume: m("1"), Price: m("-1")}},
		{name: "negative commission", pos: flat(), trade: Trade{Volume: m("1"), Price: m("1"), Commission: m("-0.01")}},
		{name: "corrupt position", pos: State{Volume: m("1"), AveragePrice: m("-3")}, trade: Trade{Volume: m("1"), Price: m("1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tt.pos, tt.trade)
			require.Error(t, err)
			require.True(t, errors.Is(err, ledgererr.ErrInvalidAmount))
		})
	}
}

func TestAccumulateRoundsAverageHalfEven(t *testing.T) {
	// exact average is 2 / 1.99999999 = 1.000000005000000025...
	res, err := Apply(State{Volume: m("1"), AveragePrice: m("1.00000001")}, Trade{Volume: m("0.99999999"), Price: m("1")})
	require.NoError(t, err)
	assert.Equal(t, CaseAccumulate, res.Case)
	assert.Equal(t, "1.99999999", res.Position.Volume.String())
	assert.Equal(t, "1.00000001", res.Position.AveragePrice.String())
}

func TestUnrealized(t *testing.T) {
	assert.Equal(t, "100", Unrealized(State{Volume: m("10"), AveragePrice: m("100")}, m("110")).String())
	assert.Equal(t, "-100", Unrealized(State{Volume: m("-10"), AveragePrice: m("100")}, m("110")).String())
	assert.True(t, Unrealized(flat(), m("110")).IsZero())
}

// ----- properties -----

func drawPrice(t *rapid.T, label string) money.Money {
	return money.New(decimal.New(rapid.Int64Range(1, 10_000_00).Draw(t, label), -2))
}

func drawVolume(t *rapid.T, label string) money.Money {
	return money.New(decimal.New(rapid.Int64Range(1, 1_000_000).Draw(t, label), -3))
}

func drawSigned(t *rapid.T, label string) money.Money {
	v := drawVolume(t, label)
	if rapid.Bool().Draw(t, label+"Sell") {
		return v.Neg()
	}
	return v
}

func drawState(t *rapid.T) State {
	if rapid.Bool().Draw(t, "flat") {
		return flat()
	}
	return State{Volume: drawSigned(t, "cv"), AveragePrice: drawPrice(t, "ap")}
}

func TestProperty_VolumeIsConserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pos := drawState(t)
		trade := Trade{Volume: drawSigned(t, "tv"), Price: drawPrice(t, "p")}

		got, err := Apply(pos, trade)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if want := pos.Volume.Add(trade.Volume); !got.Position.Volume.Equal(want) {
			t.Fatalf("volume %s, want %s", got.Position.Volume, want)
		}
		if !got.Closed.Add(got.Opened).Equal(trade.Volume.Abs()) {
			t.Fatalf("closed %s + opened %s != |trade| %s", got.Closed, got.Opened, trade.Volume.Abs())
		}
	})
}

func TestProperty_AveragePriceInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pos := drawState(t)
		trade := Trade{Volume: drawSigned(t, "tv"), Price: drawPrice(t, "p")}

		got, err := Apply(pos, trade)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		avg := got.Position.AveragePrice
		if got.Position.IsOpen() && !avg.IsPositive() {
			t.Fatalf("open position with average price %s", avg)
		}
		if !got.Position.IsOpen() && !avg.IsZero() {
			t.Fatalf("flat position kept average price %s", avg)
		}
		switch got.Case {
		case CaseReduce:
			if !avg.Equal(pos.AveragePrice) {
				t.Fatalf("reduction changed average price %s -> %s", pos.AveragePrice, avg)
			}
		case CaseFlip:
			if !avg.Equal(trade.Price) {
				t.Fatalf("flip average price %s, want trade price %s", avg, trade.Price)
			}
		case CaseAccumulate:
			lo, hi := money.Min(pos.AveragePrice, trade.Price), pos.AveragePrice
			if hi.LessThan(trade.Price) {
				hi = trade.Price
			}
			if avg.LessThan(lo) || avg.GreaterThan(hi) {
				t.Fatalf("average %s outside [%s, %s]", avg, lo, hi)
			}
		}
	})
}

func TestProperty_CommissionAlwaysDebited(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pos := drawState(t)
		trade := Trade{Volume: drawSigned(t, "tv"), Price: drawPrice(t, "p")}
		fee := money.New(decimal.New(rapid.Int64Range(0, 100_00).Draw(t, "fee"), -2))

		free, err := Apply(pos, trade)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		trade.Commission = fee
		charged, err := Apply(pos, trade)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}

		if !free.CashDelta.Sub(charged.CashDelta).Equal(fee) {
			t.Fatalf("commission %s not debited: %s vs %s", fee, free.CashDelta, charged.CashDelta)
		}
		samePosition := free.Position.Volume.Equal(charged.Position.Volume) &&
			free.Position.AveragePrice.Equal(charged.Position.AveragePrice)
		if !samePosition || free.Case != charged.Case || !free.RealizedPnL.Equal(charged.RealizedPnL) {
			t.Fatalf("commission changed position outcome")
		}
	})
}

func TestProperty_RoundTripCash(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vol := drawVolume(t, "v")
		entry := drawPrice(t, "entry")
		exit := drawPrice(t, "exit")
		short := rapid.Bool().Draw(t, "short")

		open := vol
		if short {
			open = vol.Neg()
		}

		first, err := Apply(flat(), Trade{Volume: open, Price: entry})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		second, err := Apply(first.Position, Trade{Volume: open.Neg(), Price: exit})
		if err != nil {
			t.Fatalf("close: %v", err)
		}

		if second.Position.IsOpen() || !second.Position.AveragePrice.IsZero() {
			t.Fatalf("round trip left %+v", second.Position)
		}
		if second.Case != CaseClose {
			t.Fatalf("closing case %s", second.Case)
		}

		// long: pay vol*entry, receive vol*exit; short: settle (entry-exit)*vol at close
		total := first.CashDelta.Add(second.CashDelta)
		if !total.Equal(second.RealizedPnL) {
			t.Fatalf("round trip cash %s != realized pnl %s", total, second.RealizedPnL)
		}
	})
}
