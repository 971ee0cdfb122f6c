package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested event was not found.
	ErrNotFound = errors.New("event not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateReference indicates a client_reference_id collision on a
	// plain Create (the unique constraint fired). Callers that want
	// converge-on-one-row semantics should use UpsertByClientReference.
	ErrDuplicateReference = errors.New("duplicate client reference")
)

// ListOptions provides range filtering and a result cap for List operations.
type ListOptions struct {
	// StartsAfter restricts results to events starting at or after this
	// time. Zero value means no lower bound.
	StartsAfter time.Time

	// EndsBefore restricts results to events ending at or before this time.
	// Zero value means no upper bound.
	EndsBefore time.Time

	// Limit caps the number of returned events (default 50, max 500).
	Limit int
}

// Normalize applies defaults and bounds to the options.
func (o *ListOptions) Normalize() {
	if o.Limit < 1 {
		o.Limit = 50
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
}
