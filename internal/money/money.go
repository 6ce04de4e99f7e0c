package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount in the currency's minor unit. All prices and totals
// are stored and summed as Cents so totals never drift.
type Cents int64

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than two decimal places")
)

// Parse converts a decimal string such as "12500" or "12500.50" into minor
// units. More than two fractional digits is rejected instead of rounded.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	return Cents(minor.IntPart()), nil
}

// Mul returns c * qty.
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount in major units with two decimals, e.g. "40.00".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a decimal string so clients never see
// minor units.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts "12500.50" or a bare JSON number.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
