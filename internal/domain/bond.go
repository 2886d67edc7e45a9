package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BondState is the server-authoritative lifecycle state of a bond.
type BondState string

const (
	StateIssued    BondState = "issued"
	StateActive    BondState = "active"
	StateConverted BondState = "converted"
	StateMatured   BondState = "matured"
)

// Bond is the engine's convertible bond record. The client only ever holds a
// read-only copy, as fresh as its last fetch.
type Bond struct {
	ID              string          `json:"id"`
	Principal       Money           `json:"principal"`
	CouponRate      Rate            `json:"coupon_rate"`
	IssueDate       time.Time       `json:"issue_date"`
	MaturityDate    time.Time       `json:"maturity_date"`
	ConversionPrice Money           `json:"conversion_price"`
	ConversionRatio decimal.Decimal `json:"conversion_ratio"`
	State           BondState       `json:"state"`
	LastCouponDate  time.Time       `json:"last_coupon_date"`
}

// ConversionValue is the value of the bond if converted at the given share
// price: price times ratio, in the price's currency.
func (b Bond) ConversionValue(sharePrice Money) Money {
	return sharePrice.Mul(b.ConversionRatio)
}

// BondDetail pairs a bond snapshot with the server-computed valuation figures.
type BondDetail struct {
	Bond            Bond  `json:"bond"`
	AccruedInterest Money `json:"accrued_interest"`
	PresentValue    Money `json:"present_value"`
}

// BondEvent is one entry of the engine's append-only event log. The type set
// is open; unrecognised types must be carried through untouched.
type BondEvent struct {
	Type      string          `json:"type"`
	BondID    string          `json:"bond_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PriceQuote is a snapshot from the external price feed. Its timestamp is the
// feed's own and is never assumed to line up with the bond's clock.
type PriceQuote struct {
	Price     Money     `json:"price"`
	Source    string    `json:"source"`
	Chain     string    `json:"chain"`
	Timestamp time.Time `json:"timestamp"`
}
