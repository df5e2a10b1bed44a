package core

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	// ErrProvider is an explicit failure reported by the settlement rail.
	ErrProvider = errors.New("provider error")
	// ErrAmbiguousOutcome means the rail did not answer; the transfer may or may not have settled.
	ErrAmbiguousOutcome = errors.New("ambiguous outcome")
	ErrInternal         = errors.New("internal error")
)
