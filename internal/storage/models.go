package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// StepRun records one orchestrated step invocation for auditing.
type StepRun struct {
	ID        int64
	SessionID string
	Step      string
	BondID    *string
	Status    string
	Error     *string
	Duration  time.Duration
	CreatedAt time.Time
}

// Step run statuses.
const (
	StepStatusComplete = "complete"
	StepStatusRejected = "rejected"
	StepStatusErrored  = "errored"
	StepStatusSkipped  = "skipped"
)

// PriceObservation records one oracle quote seen during a session.
type PriceObservation struct {
	ID         int64
	SessionID  string
	Price      decimal.Decimal
	Currency   string
	Source     string
	Chain      string
	ObservedAt time.Time
	CreatedAt  time.Time
}
