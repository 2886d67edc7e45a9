package oracle

import (
	"context"

	"bond-lifecycle-demo/internal/domain"
)

// PriceFetcher retrieves an externally sourced share price quote. The quote
// is best effort: no staleness guarantee is attached.
type PriceFetcher interface {
	FetchPrice(ctx context.Context) (domain.PriceQuote, error)
}

// Triggered reports whether the quoted price makes conversion economical for
// the bond: the conversion value at the quote exceeds the conversion price
// times the ratio, which reduces to quote > conversion price.
func Triggered(quote domain.PriceQuote, bond domain.Bond) bool {
	if quote.Price.Currency != bond.ConversionPrice.Currency {
		return false
	}
	return quote.Price.GreaterThan(bond.ConversionPrice)
}
