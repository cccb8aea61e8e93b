// Package money implements the fixed-point decimal used for every cash amount, price and
// volume in the ledger. Values carry at most 8 fractional digits and 20 significant digits,
// matching the numeric(20,8) columns they are persisted in.
//
// Arithmetic results are rounded to 8 fractional digits with banker's rounding (half to
// even). Addition and subtraction of in-range values are always exact.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"brokerledger/src/ledgererr"
)

const (
	// Scale is the number of fractional digits kept by every Money value.
	Scale = 8
	// MaxDigits is the total number of significant digits a parsed input may carry.
	MaxDigits = 20
)

// ErrDivisionByZero is returned by Div when the divisor is zero.
var ErrDivisionByZero = errors.New("money: division by zero")

var integerLimit = decimal.New(1, MaxDigits-Scale)

// Money is an exact decimal amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{}

// New rounds d to Scale fractional digits.
func New(d decimal.Decimal) Money {
	return Money{d: d.RoundBank(Scale)}
}

// FromInt returns an integral amount.
func FromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// Parse converts boundary input into Money exactly once. It fails with
// ledgererr.ErrInvalidAmount when s is not a finite decimal, carries more than Scale
// fractional digits, or does not fit in MaxDigits.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ledgererr.InvalidAmount("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ledgererr.InvalidAmount("cannot parse %q", s)
	}
	return fromExact(d, s)
}

// FromFloat converts a float64 received at the boundary (for example a JSON number).
// The shortest decimal representation of f is used, so 1.1 becomes exactly 1.1.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, ledgererr.InvalidAmount("non-finite amount %v", f)
	}
	return fromExact(decimal.NewFromFloat(f), fmt.Sprint(f))
}

// RequireFromString is Parse that panics. Intended for constants and tests.
func RequireFromString(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func fromExact(d decimal.Decimal, raw string) (Money, error) {
	if !d.Equal(d.Round(Scale)) {
		return Zero, ledgererr.InvalidAmount("%q has more than %d fractional digits", raw, Scale)
	}
	if d.Abs().GreaterThanOrEqual(integerLimit) {
		return Zero, ledgererr.InvalidAmount("%q exceeds %d integer digits", raw, MaxDigits-Scale)
	}
	return Money{d: d.Round(Scale)}, nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// Mul returns m*o rounded to Scale. Used for price x volume.
func (m Money) Mul(o Money) Money {
	return New(m.d.Mul(o.d))
}

// MulInt multiplies by an integral scalar, exactly.
func (m Money) MulInt(k int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(k))}
}

// Div returns m/o rounded to Scale. Callers must guard against a zero divisor; Div
// reports it instead of producing zero or infinity.
func (m Money) Div(o Money) (Money, error) {
	if o.d.IsZero() {
		return Zero, ErrDivisionByZero
	}
	return Money{d: quoBank(m.d, o.d)}, nil
}

// WeightedPrice returns |(v1*p1 + v2*p2) / (v1 + v2)|. The numerator is computed exactly
// and the result is rounded once, so averaging never accumulates rounding from the
// intermediate products.
func WeightedPrice(v1, p1, v2, p2 Money) (Money, error) {
	total := v1.d.Add(v2.d)
	if total.IsZero() {
		return Zero, ErrDivisionByZero
	}
	num := v1.d.Mul(p1.d).Add(v2.d.Mul(p2.d))
	return Money{d: quoBank(num, total).Abs()}, nil
}

var (
	two  = decimal.NewFromInt(2)
	unit = decimal.New(1, -Scale)
)

// quoBank returns num/den rounded half to even at Scale, decided from the exact
// remainder. den must not be zero.
func quoBank(num, den decimal.Decimal) decimal.Decimal {
	q, r := num.QuoRem(den, Scale)
	if r.IsZero() {
		return q
	}

	// q is truncated toward zero; |r| / (|den| * unit) is the dropped fraction.
	cmp := r.Abs().Mul(two).Cmp(den.Abs().Mul(unit))
	odd := q.Shift(Scale).BigInt().Bit(0) == 1
	if cmp < 0 || (cmp == 0 && !odd) {
		return q
	}
	if num.Sign()*den.Sign() < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}

// Sign returns -1, 0 or +1.
func (m Money) Sign() int { return m.d.Sign() }

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int                 { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool              { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool           { return m.d.LessThan(o.d) }
func (m Money) LessThanOrEqual(o Money) bool    { return m.d.LessThanOrEqual(o.d) }
func (m Money) GreaterThan(o Money) bool        { return m.d.GreaterThan(o.d) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders the shortest exact representation ("105", "1.1").
func (m Money) String() string { return m.d.String() }

// StringFixed renders with all Scale fractional digits.
func (m Money) StringFixed() string { return m.d.StringFixed(Scale) }

// Display formats m in the given ISO currency ("$1,234.50"). Amounts are rounded to the
// currency's minor unit; unknown currencies fall back to "<amount> <code>".
func (m Money) Display(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	c := gomoney.GetCurrency(code)
	if c == nil {
		return m.String() + " " + code
	}
	minor := m.d.Shift(int32(c.Fraction)).RoundBank(0).IntPart()
	return gomoney.New(minor, code).Display()
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.d.StringFixed(Scale), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.d = d.RoundBank(Scale)
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.d.MarshalJSON()
}

// UnmarshalJSON accepts quoted and bare numbers and applies the same validation as Parse.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" {
		return ledgererr.InvalidAmount("null amount")
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
