package domain

import "errors"

var (
	// ErrNotFound means the referenced bond id is unknown to the engine.
	ErrNotFound = errors.New("bond not found")
	// ErrInvalidState means the engine rejected the operation under its
	// lifecycle rules, e.g. paying a coupon on a matured bond. Recoverable.
	ErrInvalidState = errors.New("invalid bond state")
	// ErrTimeout means no response arrived within the caller's bound.
	ErrTimeout = errors.New("request timed out")
	// ErrService covers transport failures and malformed responses.
	ErrService = errors.New("engine service error")

	// ErrBusy rejects a step invoked while another step is in flight.
	ErrBusy = errors.New("step already in flight")
)
