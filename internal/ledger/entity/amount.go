package entity

import (
	"github.com/shopspring/decimal"
)

// Amount is an exact decimal money value. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Amount{}

// ParseAmount builds an Amount from a decimal literal such as "10.50".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{d: d}, nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// MaxScale is the number of fractional digits a ledger amount may carry.
const MaxScale = 2

// WithinScale reports whether a has at most MaxScale fractional digits.
func (a Amount) WithinScale() bool {
	return a.d.Equal(a.d.Truncate(MaxScale))
}

// Text renders the exact value with no rounding, e.g. "10.125". Stores use it
// for SQL parameters; String is for display.
func (a Amount) Text() string {
	return a.d.String()
}

// String renders the amount rounded to two fractional digits, e.g. "201.50".
func (a Amount) String() string {
	return a.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON string to keep precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

// UnmarshalJSON accepts both JSON numbers and quoted decimals.
func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.d.UnmarshalJSON(b)
}
