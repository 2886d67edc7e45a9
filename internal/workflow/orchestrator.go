package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bond-lifecycle-demo/internal/alerting"
	"bond-lifecycle-demo/internal/domain"
	"bond-lifecycle-demo/internal/engine"
	"bond-lifecycle-demo/internal/oracle"
	"bond-lifecycle-demo/internal/storage"
)

// EngineClient is the subset of the bond engine client the orchestrator
// drives.
type EngineClient interface {
	CreateBond(ctx context.Context, p engine.CreateBondParams) (string, error)
	GetBond(ctx context.Context, id string) (domain.BondDetail, error)
	PayCoupon(ctx context.Context, id string) (domain.BondDetail, error)
	Convert(ctx context.Context, id string, observed domain.Money) (domain.BondDetail, error)
	ConversionValue(ctx context.Context, id string) (domain.Money, error)
	ListEvents(ctx context.Context) ([]domain.BondEvent, error)
}

// Session is the client-owned, ephemeral view of the demo: the last-known
// copies of server-authoritative state plus the price observed from the
// oracle. It is lost when the process ends.
type Session struct {
	ID              string
	BondID          string
	Bond            *domain.BondDetail
	Events          []domain.BondEvent
	Price           *domain.PriceQuote
	ConversionValue *domain.Money
	Busy            bool
	Step            Step
}

// Orchestrator sequences the five lifecycle steps against the engine and owns
// the session state. Only one step runs at a time; concurrent invocations are
// rejected with domain.ErrBusy rather than queued.
type Orchestrator struct {
	engine       EngineClient
	prices       oracle.PriceFetcher
	issue        engine.CreateBondParams
	audit        storage.StepRunStore
	observations storage.PriceObservationStore
	notifier     alerting.Notifier
	logger       zerolog.Logger

	mu   sync.Mutex
	sess Session
}

// New constructs an orchestrator with an empty session. Store and notifier
// may be nil; auditing and alerting are then disabled.
func New(client EngineClient, prices oracle.PriceFetcher, issue engine.CreateBondParams, audit storage.StepRunStore, observations storage.PriceObservationStore, notifier alerting.Notifier, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		engine:       client,
		prices:       prices,
		issue:        issue,
		audit:        audit,
		observations: observations,
		notifier:     notifier,
		logger:       logger.With().Str("component", "orchestrator").Logger(),
		sess:         Session{ID: uuid.NewString()},
	}
}

// Snapshot returns a copy of the current session state.
func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := o.sess
	if o.sess.Bond != nil {
		bond := *o.sess.Bond
		snap.Bond = &bond
	}
	if o.sess.Price != nil {
		price := *o.sess.Price
		snap.Price = &price
	}
	if o.sess.ConversionValue != nil {
		value := *o.sess.ConversionValue
		snap.ConversionValue = &value
	}
	snap.Events = make([]domain.BondEvent, len(o.sess.Events))
	copy(snap.Events, o.sess.Events)
	return snap
}

// Run executes a single step. While a step is in flight any further
// invocation returns domain.ErrBusy. The busy flag is cleared exactly once on
// every path, so a failed step never locks the session.
func (o *Orchestrator) Run(ctx context.Context, step Step) error {
	if err := o.begin(step); err != nil {
		return err
	}

	start := time.Now()
	skipped, err := o.dispatch(ctx, step)
	o.finish()

	o.recordStep(ctx, step, start, skipped, err)

	switch {
	case skipped:
		o.logger.Info().Stringer("step", step).Msg("step skipped; preconditions not met")
	case err != nil:
		o.logger.Error().Err(err).Stringer("step", step).Msg("step failed")
	default:
		o.logger.Info().Stringer("step", step).Dur("took", time.Since(start)).Msg("step complete")
	}
	return err
}

func (o *Orchestrator) begin(step Step) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sess.Busy {
		return domain.ErrBusy
	}
	o.sess.Busy = true
	o.sess.Step = step
	return nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.sess.Busy = false
	o.mu.Unlock()
}

func (o *Orchestrator) dispatch(ctx context.Context, step Step) (skipped bool, err error) {
	switch step {
	case StepIssue:
		return false, o.stepIssue(ctx)
	case StepAccrue:
		return o.stepAccrue(ctx)
	case StepCoupon:
		return o.stepCoupon(ctx)
	case StepObserve:
		return false, o.stepObserve(ctx)
	case StepConvert:
		return o.stepConvert(ctx)
	default:
		return false, errors.New("unknown step")
	}
}

// stepIssue creates the bond, fetches its first snapshot, and seeds the event
// list. On any failure the session is left untouched.
func (o *Orchestrator) stepIssue(ctx context.Context) error {
	id, err := o.engine.CreateBond(ctx, o.issue)
	if err != nil {
		return err
	}

	detail, err := o.engine.GetBond(ctx, id)
	if err != nil {
		return err
	}

	events, err := o.engine.ListEvents(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.sess.BondID = id
	o.sess.Bond = &detail
	o.sess.Events = events
	o.mu.Unlock()

	o.logger.Info().Str("bond_id", id).
		Str("principal", detail.Bond.Principal.String()).
		Str("state", string(detail.Bond.State)).
		Msg("bond issued")
	return nil
}

// stepAccrue refreshes the bond snapshot so the engine-computed accrued
// interest is current.
func (o *Orchestrator) stepAccrue(ctx context.Context) (bool, error) {
	id := o.activeBondID()
	if id == "" {
		return true, nil
	}

	detail, err := o.engine.GetBond(ctx, id)
	if err != nil {
		return false, err
	}

	o.mu.Lock()
	o.sess.Bond = &detail
	o.mu.Unlock()

	o.logger.Info().Str("bond_id", id).
		Str("accrued_interest", detail.AccruedInterest.String()).
		Msg("accrued interest refreshed")
	return false, nil
}

// stepCoupon pays the coupon and re-fetches snapshot and events. An engine
// lifecycle rejection surfaces as domain.ErrInvalidState with the cached
// snapshot unchanged.
func (o *Orchestrator) stepCoupon(ctx context.Context) (bool, error) {
	id := o.activeBondID()
	if id == "" {
		return true, nil
	}

	if _, err := o.engine.PayCoupon(ctx, id); err != nil {
		return false, err
	}

	detail, err := o.engine.GetBond(ctx, id)
	if err != nil {
		return false, err
	}

	events, err := o.engine.ListEvents(ctx)
	if err != nil {
		return false, err
	}

	o.mu.Lock()
	o.sess.Bond = &detail
	o.sess.Events = events
	o.mu.Unlock()

	o.logger.Info().Str("bond_id", id).Msg("coupon paid")
	return false, nil
}

// stepObserve pulls a quote from the oracle and, when a bond is active, the
// derived conversion value. Both are committed together; on failure the
// previous observation stays in place.
func (o *Orchestrator) stepObserve(ctx context.Context) error {
	quote, err := o.prices.FetchPrice(ctx)
	if err != nil {
		return err
	}

	id := o.activeBondID()

	var value *domain.Money
	if id != "" {
		v, err := o.engine.ConversionValue(ctx, id)
		if err != nil {
			return err
		}
		value = &v
	}

	o.mu.Lock()
	o.sess.Price = &quote
	if value != nil {
		o.sess.ConversionValue = value
	}
	bond := o.sess.Bond
	o.mu.Unlock()

	o.logger.Info().Str("price", quote.Price.String()).
		Str("source", quote.Source).
		Str("chain", quote.Chain).
		Msg("external price observed")

	o.recordObservation(ctx, quote)

	if bond != nil && oracle.Triggered(quote, bond.Bond) {
		o.notifyTrigger(ctx, bond.Bond, quote, value)
	}
	return nil
}

// stepConvert converts the bond at the last observed price. Requires both an
// active bond and a prior successful observation.
func (o *Orchestrator) stepConvert(ctx context.Context) (bool, error) {
	o.mu.Lock()
	id := o.sess.BondID
	price := o.sess.Price
	o.mu.Unlock()

	if id == "" || price == nil {
		return true, nil
	}

	if _, err := o.engine.Convert(ctx, id, price.Price); err != nil {
		return false, err
	}

	detail, err := o.engine.GetBond(ctx, id)
	if err != nil {
		return false, err
	}

	events, err := o.engine.ListEvents(ctx)
	if err != nil {
		return false, err
	}

	o.mu.Lock()
	o.sess.Bond = &detail
	o.sess.Events = events
	o.mu.Unlock()

	o.logger.Info().Str("bond_id", id).
		Str("state", string(detail.Bond.State)).
		Str("observed_price", price.Price.String()).
		Msg("bond converted")
	return false, nil
}

// RefreshEvents is the poller tick. It skips while a step is in flight or no
// bond is active, and drops its result if a step started meanwhile: the step
// refreshes from the same authoritative log, so its write wins.
func (o *Orchestrator) RefreshEvents(ctx context.Context) error {
	o.mu.Lock()
	if o.sess.Busy || o.sess.BondID == "" {
		o.mu.Unlock()
		return nil
	}
	id := o.sess.BondID
	o.mu.Unlock()

	events, err := o.engine.ListEvents(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.Busy || o.sess.BondID != id {
		return nil
	}
	o.sess.Events = events
	return nil
}

func (o *Orchestrator) activeBondID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.BondID
}

func (o *Orchestrator) recordStep(ctx context.Context, step Step, start time.Time, skipped bool, stepErr error) {
	if o.audit == nil {
		return
	}

	status := storage.StepStatusComplete
	switch {
	case skipped:
		status = storage.StepStatusSkipped
	case errors.Is(stepErr, domain.ErrInvalidState):
		status = storage.StepStatusRejected
	case stepErr != nil:
		status = storage.StepStatusErrored
	}

	run := storage.StepRun{
		SessionID: o.sess.ID,
		Step:      step.String(),
		Status:    status,
		Duration:  time.Since(start),
	}
	if id := o.activeBondID(); id != "" {
		run.BondID = &id
	}
	if stepErr != nil {
		msg := stepErr.Error()
		run.Error = &msg
	}

	if _, err := o.audit.InsertStepRun(ctx, run); err != nil {
		o.logger.Error().Err(err).Stringer("step", step).Msg("failed to audit step run")
	}
}

func (o *Orchestrator) recordObservation(ctx context.Context, quote domain.PriceQuote) {
	if o.observations == nil {
		return
	}

	obs := storage.PriceObservation{
		SessionID:  o.sess.ID,
		Price:      quote.Price.Amount,
		Currency:   quote.Price.Currency,
		Source:     quote.Source,
		Chain:      quote.Chain,
		ObservedAt: quote.Timestamp,
	}
	if _, err := o.observations.InsertPriceObservation(ctx, obs); err != nil {
		o.logger.Error().Err(err).Msg("failed to persist price observation")
	}
}

func (o *Orchestrator) notifyTrigger(ctx context.Context, bond domain.Bond, quote domain.PriceQuote, value *domain.Money) {
	o.logger.Info().Str("bond_id", bond.ID).
		Str("observed", quote.Price.String()).
		Str("conversion_price", bond.ConversionPrice.String()).
		Msg("conversion trigger crossed")

	if o.notifier == nil {
		return
	}

	note := alerting.Notification{
		BondID:          bond.ID,
		Observed:        quote,
		ConversionPrice: bond.ConversionPrice,
		ConversionRatio: bond.ConversionRatio,
	}
	if value != nil {
		note.ConversionValue = *value
	}
	if err := o.notifier.Notify(ctx, note); err != nil {
		o.logger.Error().Err(err).Msg("failed to dispatch trigger notification")
	}
}
