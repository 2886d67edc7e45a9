package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in a named currency. Amounts travel as
// decimal strings on the wire; binary floats are never used for magnitudes.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney builds Money from a decimal string. The string must parse exactly.
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Add sums two amounts. The currency of the receiver is kept.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Mul scales the amount by a decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// GreaterThan compares magnitudes only.
func (m Money) GreaterThan(other Money) bool {
	return m.Amount.GreaterThan(other.Amount)
}

// IsZero reports whether the magnitude is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}

// Rate is a decimal fraction, e.g. 0.05 for 5%. Rendered as a percentage
// only at display time.
type Rate struct {
	Value decimal.Decimal `json:"value"`
}

// Percent returns the rate scaled to percentage points.
func (r Rate) Percent() decimal.Decimal {
	return r.Value.Mul(decimal.NewFromInt(100))
}
