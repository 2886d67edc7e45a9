package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bond-lifecycle-demo/internal/domain"
	"bond-lifecycle-demo/internal/engine"
	"bond-lifecycle-demo/internal/oracle"
	"bond-lifecycle-demo/internal/workflow"
)

// Simulate drives the full lifecycle against an in-process engine stub and a
// static oracle quote, with no server required. Useful for demos and for
// exercising alerting end to end.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Price <= 0 {
		return errors.New("price must be greater than zero")
	}

	quote := domain.PriceQuote{
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(opts.Price),
			Currency: a.Config.Demo.Currency,
		},
		Source:    "Simulated Oracle",
		Chain:     "in-process",
		Timestamp: time.Now().UTC(),
	}

	orch := workflow.New(
		newStubEngine(),
		staticPriceFeed{quote: quote},
		a.issueParams(),
		nil,
		nil,
		a.newNotifier(),
		a.Logger,
	)

	pause := opts.Pause
	if pause <= 0 {
		pause = time.Second
	}

	return a.runLifecycle(ctx, orch, workflow.Steps, pause)
}

type staticPriceFeed struct {
	quote domain.PriceQuote
}

func (f staticPriceFeed) FetchPrice(ctx context.Context) (domain.PriceQuote, error) {
	return f.quote, nil
}

// stubEngine is a minimal in-memory stand-in for the bond engine, close
// enough for the scripted lifecycle: one bond, an append-only event log, and
// the engine's state rules for conversion.
type stubEngine struct {
	mu     sync.Mutex
	bond   *domain.Bond
	price  domain.Money
	events []domain.BondEvent
}

func newStubEngine() *stubEngine {
	return &stubEngine{events: []domain.BondEvent{}}
}

func (e *stubEngine) CreateBond(ctx context.Context, p engine.CreateBondParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bond != nil {
		return "", fmt.Errorf("stub engine holds a bond already: %w", domain.ErrService)
	}

	now := time.Now().UTC()
	bond := domain.Bond{
		ID:              uuid.NewString(),
		Principal:       domain.Money{Amount: p.Principal, Currency: p.Currency},
		CouponRate:      domain.Rate{Value: p.CouponRate},
		IssueDate:       now,
		MaturityDate:    now.AddDate(p.MaturityYears, 0, 0),
		ConversionPrice: domain.Money{Amount: p.ConversionPrice, Currency: p.Currency},
		ConversionRatio: decimal.NewFromInt(p.ConversionRatio),
		State:           domain.StateActive,
		LastCouponDate:  now,
	}
	e.bond = &bond
	e.appendEvent("issued", bond.ID, nil)
	return bond.ID, nil
}

func (e *stubEngine) GetBond(ctx context.Context, id string) (domain.BondDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bond, err := e.lookup(id)
	if err != nil {
		return domain.BondDetail{}, err
	}

	days := decimal.NewFromInt(int64(time.Since(bond.LastCouponDate).Hours() / 24))
	accrued := bond.Principal.Amount.
		Mul(bond.CouponRate.Value).
		Div(decimal.NewFromInt(360)).
		Mul(days)

	return domain.BondDetail{
		Bond:            bond,
		AccruedInterest: domain.Money{Amount: accrued, Currency: bond.Principal.Currency},
		PresentValue:    bond.Principal,
	}, nil
}

func (e *stubEngine) PayCoupon(ctx context.Context, id string) (domain.BondDetail, error) {
	e.mu.Lock()

	bond, err := e.lookup(id)
	if err != nil {
		e.mu.Unlock()
		return domain.BondDetail{}, err
	}
	if bond.State != domain.StateActive {
		e.mu.Unlock()
		return domain.BondDetail{}, fmt.Errorf("pay coupon on %s bond: %w", bond.State, domain.ErrInvalidState)
	}

	e.bond.LastCouponDate = time.Now().UTC()
	e.appendEvent("coupon_paid", id, nil)
	e.mu.Unlock()

	return e.GetBond(ctx, id)
}

func (e *stubEngine) Convert(ctx context.Context, id string, observed domain.Money) (domain.BondDetail, error) {
	e.mu.Lock()

	bond, err := e.lookup(id)
	if err != nil {
		e.mu.Unlock()
		return domain.BondDetail{}, err
	}
	if bond.State != domain.StateActive {
		e.mu.Unlock()
		return domain.BondDetail{}, fmt.Errorf("convert %s bond: %w", bond.State, domain.ErrInvalidState)
	}

	e.bond.State = domain.StateConverted
	e.price = observed
	payload, _ := json.Marshal(map[string]string{
		"stock_price": observed.Amount.String(),
		"currency":    observed.Currency,
	})
	e.appendEvent("converted", id, payload)
	e.mu.Unlock()

	return e.GetBond(ctx, id)
}

func (e *stubEngine) ConversionValue(ctx context.Context, id string) (domain.Money, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bond, err := e.lookup(id)
	if err != nil {
		return domain.Money{}, err
	}

	price := e.price
	if price.Amount.IsZero() {
		price = bond.ConversionPrice
	}
	return bond.ConversionValue(price), nil
}

func (e *stubEngine) ListEvents(ctx context.Context) ([]domain.BondEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := make([]domain.BondEvent, len(e.events))
	copy(events, e.events)
	return events, nil
}

func (e *stubEngine) lookup(id string) (domain.Bond, error) {
	if e.bond == nil || e.bond.ID != id {
		return domain.Bond{}, fmt.Errorf("bond %s: %w", id, domain.ErrNotFound)
	}
	return *e.bond, nil
}

func (e *stubEngine) appendEvent(eventType, bondID string, data json.RawMessage) {
	e.events = append(e.events, domain.BondEvent{
		Type:      eventType,
		BondID:    bondID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

var _ workflow.EngineClient = (*stubEngine)(nil)
var _ oracle.PriceFetcher = (staticPriceFeed{})
