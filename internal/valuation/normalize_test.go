package valuation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bond-lifecycle-demo/internal/domain"
)

func usd(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.NewMoney(amount, "USD")
	if err != nil {
		t.Fatalf("bad amount %q: %v", amount, err)
	}
	return m
}

func TestNormalizeLargestIsHundred(t *testing.T) {
	figures := []Figure{
		{Label: "present_value", Value: usd(t, "1044518.22")},
		{Label: "accrued_interest", Value: usd(t, "138.88")},
		{Label: "conversion_value", Value: usd(t, "1500000")},
	}

	shares, err := Normalize(figures)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}

	for i, s := range shares {
		if s.Label != figures[i].Label {
			t.Fatalf("order not preserved at %d: %s", i, s.Label)
		}
		if s.Pct.IsNegative() || s.Pct.GreaterThan(decimal.NewFromInt(100)) {
			t.Fatalf("%s out of range: %s", s.Label, s.Pct)
		}
	}
	if !shares[2].Pct.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("largest figure should be 100, got %s", shares[2].Pct)
	}
}

func TestNormalizeAllZero(t *testing.T) {
	shares, err := Normalize([]Figure{
		{Label: "a", Value: usd(t, "0")},
		{Label: "b", Value: usd(t, "0")},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for _, s := range shares {
		if !s.Pct.IsZero() {
			t.Fatalf("%s should be zero, got %s", s.Label, s.Pct)
		}
	}
}

func TestNormalizeScaleInvariance(t *testing.T) {
	small, err := Normalize([]Figure{
		{Label: "a", Value: usd(t, "1")},
		{Label: "b", Value: usd(t, "4")},
	})
	if err != nil {
		t.Fatalf("normalize small: %v", err)
	}
	large, err := Normalize([]Figure{
		{Label: "a", Value: usd(t, "1000000")},
		{Label: "b", Value: usd(t, "4000000")},
	})
	if err != nil {
		t.Fatalf("normalize large: %v", err)
	}
	for i := range small {
		if !small[i].Pct.Equal(large[i].Pct) {
			t.Fatalf("proportions changed with scale: %s vs %s", small[i].Pct, large[i].Pct)
		}
	}
}

func TestNormalizeRepeatable(t *testing.T) {
	figures := []Figure{
		{Label: "a", Value: usd(t, "33.33")},
		{Label: "b", Value: usd(t, "99.99")},
	}
	first, err := Normalize(figures)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := Normalize(figures)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	for i := range first {
		if !first[i].Pct.Equal(second[i].Pct) {
			t.Fatalf("result drifted between calls at %d", i)
		}
	}
}

func TestNormalizeMixedCurrency(t *testing.T) {
	eur, err := domain.NewMoney("100", "EUR")
	if err != nil {
		t.Fatalf("new money: %v", err)
	}
	_, err = Normalize([]Figure{
		{Label: "a", Value: usd(t, "100")},
		{Label: "b", Value: eur},
	})
	if !errors.Is(err, ErrMixedCurrency) {
		t.Fatalf("expected mixed currency error, got %v", err)
	}
}

func TestNormalizeRejectsNegative(t *testing.T) {
	neg, err := domain.NewMoney("-1", "USD")
	if err != nil {
		t.Fatalf("new money: %v", err)
	}
	if _, err := Normalize([]Figure{{Label: "a", Value: neg}}); err == nil {
		t.Fatal("expected error for negative figure")
	}
}

func TestNormalizeEmpty(t *testing.T) {
	shares, err := Normalize(nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if shares != nil {
		t.Fatalf("expected nil shares, got %v", shares)
	}
}
