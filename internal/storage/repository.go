package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertStepRunSQL = `INSERT INTO step_runs (
        session_id,
        step,
        bond_id,
        status,
        error,
        duration_ms
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, created_at;`

	listRecentStepRunsSQL = `SELECT
        id,
        session_id,
        step,
        bond_id,
        status,
        error,
        duration_ms,
        created_at
    FROM step_runs
    ORDER BY created_at DESC
    LIMIT $1;`

	countStepRunsSQL = `SELECT COUNT(*) FROM step_runs;`

	insertPriceObservationSQL = `INSERT INTO price_observations (
        session_id,
        price,
        currency,
        source,
        chain,
        observed_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, created_at;`

	listObservationsBetweenSQL = `SELECT
        id,
        session_id,
        price,
        currency,
        source,
        chain,
        observed_at,
        created_at
    FROM price_observations
    WHERE observed_at >= $1
      AND observed_at < $2
    ORDER BY observed_at;`

	countObservationsSQL = `SELECT COUNT(*) FROM price_observations;`
)

// StepRunStore defines operations for step run auditing.
type StepRunStore interface {
	InsertStepRun(ctx context.Context, run StepRun) (StepRun, error)
	ListRecentStepRuns(ctx context.Context, limit int) ([]StepRun, error)
	CountStepRuns(ctx context.Context) (int64, error)
}

// PriceObservationStore defines operations for oracle quote persistence.
type PriceObservationStore interface {
	InsertPriceObservation(ctx context.Context, obs PriceObservation) (PriceObservation, error)
	ListObservationsBetween(ctx context.Context, from, to time.Time) ([]PriceObservation, error)
	CountObservations(ctx context.Context) (int64, error)
}

// Store aggregates access to step runs and price observations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertStepRun persists one step invocation.
func (s *Store) InsertStepRun(ctx context.Context, run StepRun) (StepRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return StepRun{}, err
	}

	var bondID interface{}
	if run.BondID != nil {
		bondID = *run.BondID
	}

	var errMsg interface{}
	if run.Error != nil {
		errMsg = *run.Error
	}

	row := pool.QueryRow(ctx, insertStepRunSQL,
		run.SessionID,
		run.Step,
		bondID,
		run.Status,
		errMsg,
		run.Duration.Milliseconds(),
	)

	rec := run
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return StepRun{}, fmt.Errorf("insert step run: %w", scanErr)
	}
	return rec, nil
}

// ListRecentStepRuns lists the most recent step runs, newest first.
func (s *Store) ListRecentStepRuns(ctx context.Context, limit int) ([]StepRun, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentStepRunsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent step runs: %w", queryErr)
	}
	defer rows.Close()

	runs := make([]StepRun, 0, limit)
	for rows.Next() {
		var rec StepRun
		var durationMS int64
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Step,
			&rec.BondID,
			&rec.Status,
			&rec.Error,
			&durationMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return runs, nil
}

// CountStepRuns counts stored step runs.
func (s *Store) CountStepRuns(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countStepRunsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count step runs: %w", scanErr)
	}
	return count, nil
}

// InsertPriceObservation persists one oracle quote.
func (s *Store) InsertPriceObservation(ctx context.Context, obs PriceObservation) (PriceObservation, error) {
	pool, err := s.getPool()
	if err != nil {
		return PriceObservation{}, err
	}

	row := pool.QueryRow(ctx, insertPriceObservationSQL,
		obs.SessionID,
		obs.Price.String(),
		obs.Currency,
		obs.Source,
		obs.Chain,
		obs.ObservedAt,
	)

	rec := obs
	if scanErr := row.Scan(&rec.ID, &rec.CreatedAt); scanErr != nil {
		return PriceObservation{}, fmt.Errorf("insert price observation: %w", scanErr)
	}
	return rec, nil
}

// ListObservationsBetween lists observations within a time window.
func (s *Store) ListObservationsBetween(ctx context.Context, from, to time.Time) ([]PriceObservation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listObservationsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list observations between: %w", queryErr)
	}
	defer rows.Close()

	observations := make([]PriceObservation, 0)
	for rows.Next() {
		var rec PriceObservation
		var priceStr string
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&priceStr,
			&rec.Currency,
			&rec.Source,
			&rec.Chain,
			&rec.ObservedAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		rec.Price, convErr = decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse observed price: %w", convErr)
		}
		observations = append(observations, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return observations, nil
}

// CountObservations counts stored observations.
func (s *Store) CountObservations(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countObservationsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count observations: %w", scanErr)
	}
	return count, nil
}

var _ StepRunStore = (*Store)(nil)
var _ PriceObservationStore = (*Store)(nil)
