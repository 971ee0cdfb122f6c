// Package storage provides the EventStore interface and shared storage types
// for the Almanac calendar system.
//
// The store is an explicitly constructed instance passed to the pipeline by
// reference; its lifecycle is tied to application startup and shutdown. Both
// the SQLite and Postgres backends implement the same interface.
package storage

import (
	"context"

	"github.com/scrypster/almanac/pkg/types"
)

// EventStore persists calendar events. It supports lookup by primary key and
// by idempotency key, range queries, and an atomic find-or-create-by-key
// upsert so that concurrent identical save requests converge on one row.
type EventStore interface {
	// Create inserts a new event and assigns its ID.
	// CreatedAt/UpdatedAt are set to now when zero.
	Create(ctx context.Context, event *types.Event) error

	// GetByID retrieves an event by primary key.
	// Returns ErrNotFound if no event exists.
	GetByID(ctx context.Context, id int64) (*types.Event, error)

	// GetByClientReference retrieves an event by its idempotency key.
	// Returns ErrNotFound if no event carries the key.
	GetByClientReference(ctx context.Context, ref string) (*types.Event, error)

	// UpsertByClientReference atomically creates the event or, when a row
	// with the same non-empty client_reference_id already exists, overwrites
	// that row's fields in place. The key lookup and the write are a single
	// statement, so two concurrent saves with the same key cannot produce
	// duplicate rows. Returns the stored event with its assigned ID.
	UpsertByClientReference(ctx context.Context, event *types.Event) (*types.Event, error)

	// Update overwrites an existing event's mutable fields by ID.
	// Returns ErrNotFound if the event doesn't exist.
	Update(ctx context.Context, event *types.Event) error

	// Delete removes an event by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error

	// DeleteByClientReference removes the event carrying the given
	// idempotency key. Returns ErrNotFound if no event carries it.
	DeleteByClientReference(ctx context.Context, ref string) error

	// List returns events matching the options, ordered by start time
	// ascending.
	List(ctx context.Context, opts ListOptions) ([]*types.Event, error)

	// Close releases any resources held by the store.
	Close() error
}
