package valuation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bond-lifecycle-demo/internal/domain"
)

// ErrMixedCurrency rejects normalization across figures quoted in different
// currencies. Proportions of incompatible units are meaningless, so the
// precondition fails loudly instead of being silently ignored.
var ErrMixedCurrency = errors.New("figures quote different currencies")

var hundred = decimal.NewFromInt(100)

// Figure is one named monetary magnitude to be normalized.
type Figure struct {
	Label string
	Value domain.Money
}

// Share is a figure together with its proportion of the set maximum, in
// percentage points within [0, 100].
type Share struct {
	Figure
	Pct decimal.Decimal
}

// Normalize maps each figure to value / max(values) * 100, preserving input
// order. Negative magnitudes are rejected. If every magnitude is zero, every
// proportion is zero. The function is pure: identical inputs always yield
// identical outputs.
func Normalize(figures []Figure) ([]Share, error) {
	if len(figures) == 0 {
		return nil, nil
	}

	currency := figures[0].Value.Currency
	max := decimal.Zero
	for _, f := range figures {
		if f.Value.Currency != currency {
			return nil, fmt.Errorf("%q is %s, %q is %s: %w",
				figures[0].Label, currency, f.Label, f.Value.Currency, ErrMixedCurrency)
		}
		if f.Value.Amount.IsNegative() {
			return nil, fmt.Errorf("figure %q is negative", f.Label)
		}
		if f.Value.Amount.GreaterThan(max) {
			max = f.Value.Amount
		}
	}

	shares := make([]Share, 0, len(figures))
	for _, f := range figures {
		pct := decimal.Zero
		if !max.IsZero() {
			pct = f.Value.Amount.Div(max).Mul(hundred)
		}
		shares = append(shares, Share{Figure: f, Pct: pct})
	}
	return shares, nil
}
