// Package sqlite implements storage.EventStore on SQLite via modernc.org/sqlite.
// It is the default backend: a single-file (or in-memory) database with WAL
// mode and a single write connection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/almanac/internal/storage"
	"github.com/scrypster/almanac/pkg/types"
)

// EventStore implements storage.EventStore using SQLite.
type EventStore struct {
	db *sql.DB
}

// NewEventStore opens a SQLite database at dsn (a file path or ":memory:"),
// configures WAL mode, and creates the schema.
func NewEventStore(dsn string) (*EventStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY under concurrent load; WAL
	// mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &EventStore{db: db}, nil
}

// GetDB exposes the underlying connection for health checks.
func (s *EventStore) GetDB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *EventStore) Close() error {
	return s.db.Close()
}

// Create inserts a new event and assigns its ID.
func (s *EventStore) Create(ctx context.Context, event *types.Event) error {
	if err := prepareForWrite(event); err != nil {
		return err
	}

	attendeesJSON, err := marshalAttendees(event.Attendees)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (title, start_time, end_time, timezone, location, description, notes, attendees, client_reference_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.Title, event.StartTime.UTC(), event.EndTime.UTC(), event.Timezone,
		nullString(event.Location), nullString(event.Description), nullString(event.Notes),
		attendeesJSON, nullString(event.ClientReferenceID),
		event.CreatedAt.UTC(), event.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", storage.ErrDuplicateReference, event.ClientReferenceID)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	event.ID = id
	return nil
}

// UpsertByClientReference atomically creates or overwrites the event keyed by
// its client_reference_id. The conflict resolution is part of the INSERT
// statement, so concurrent saves with the same key converge on one row.
// An event without a key degrades to a plain Create.
func (s *EventStore) UpsertByClientReference(ctx context.Context, event *types.Event) (*types.Event, error) {
	if event != nil && event.ClientReferenceID == "" {
		if err := s.Create(ctx, event); err != nil {
			return nil, err
		}
		return event, nil
	}

	if err := prepareForWrite(event); err != nil {
		return nil, err
	}

	attendeesJSON, err := marshalAttendees(event.Attendees)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO events (title, start_time, end_time, timezone, location, description, notes, attendees, client_reference_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_reference_id) DO UPDATE SET
			title = excluded.title,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			timezone = excluded.timezone,
			location = excluded.location,
			description = excluded.description,
			notes = excluded.notes,
			attendees = excluded.attendees,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		event.Title, event.StartTime.UTC(), event.EndTime.UTC(), event.Timezone,
		nullString(event.Location), nullString(event.Description), nullString(event.Notes),
		attendeesJSON, event.ClientReferenceID,
		event.CreatedAt.UTC(), event.UpdatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert event: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves an event by primary key.
func (s *EventStore) GetByID(ctx context.Context, id int64) (*types.Event, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM events WHERE id = ?", id)
	return scanEvent(row)
}

// GetByClientReference retrieves an event by its idempotency key.
func (s *EventStore) GetByClientReference(ctx context.Context, ref string) (*types.Event, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: client reference is required", storage.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM events WHERE client_reference_id = ?", ref)
	return scanEvent(row)
}

// Update overwrites an existing event's mutable fields by ID.
func (s *EventStore) Update(ctx context.Context, event *types.Event) error {
	if event == nil || event.ID == 0 {
		return fmt.Errorf("%w: event ID is required", storage.ErrInvalidInput)
	}

	attendeesJSON, err := marshalAttendees(event.Attendees)
	if err != nil {
		return err
	}

	event.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET
			title = ?,
			start_time = ?,
			end_time = ?,
			timezone = ?,
			location = ?,
			description = ?,
			notes = ?,
			attendees = ?,
			updated_at = ?
		WHERE id = ?
	`,
		event.Title, event.StartTime.UTC(), event.EndTime.UTC(), event.Timezone,
		nullString(event.Location), nullString(event.Description), nullString(event.Notes),
		attendeesJSON, event.UpdatedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes an event by ID.
func (s *EventStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteByClientReference removes the event carrying the given idempotency key.
func (s *EventStore) DeleteByClientReference(ctx context.Context, ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: client reference is required", storage.ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE client_reference_id = ?", ref)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns events matching the options, ordered by start time ascending.
func (s *EventStore) List(ctx context.Context, opts ListOptions) ([]*types.Event, error) {
	opts.Normalize()

	query := selectColumns + " FROM events"
	var conditions []string
	var args []interface{}

	if !opts.StartsAfter.IsZero() {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, opts.StartsAfter.UTC())
	}
	if !opts.EndsBefore.IsZero() {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, opts.EndsBefore.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*types.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// ListOptions is re-exported for call-site brevity.
type ListOptions = storage.ListOptions

const selectColumns = `SELECT id, title, start_time, end_time, timezone, location, description, notes, attendees, client_reference_id, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*types.Event, error) {
	var (
		event            types.Event
		location, desc   sql.NullString
		notes, attendees sql.NullString
		clientRef        sql.NullString
	)

	err := row.Scan(
		&event.ID, &event.Title, &event.StartTime, &event.EndTime, &event.Timezone,
		&location, &desc, &notes, &attendees, &clientRef,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Location = location.String
	event.Description = desc.String
	event.Notes = notes.String
	event.ClientReferenceID = clientRef.String

	if attendees.Valid && attendees.String != "" {
		if err := json.Unmarshal([]byte(attendees.String), &event.Attendees); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attendees: %w", err)
		}
	}

	return &event, nil
}

// prepareForWrite validates the minimal store invariants and stamps timestamps.
func prepareForWrite(event *types.Event) error {
	if event == nil {
		return storage.ErrInvalidInput
	}
	if event.Title == "" {
		return fmt.Errorf("%w: event title is required", storage.ErrInvalidInput)
	}
	if event.StartTime.IsZero() || event.EndTime.IsZero() {
		return fmt.Errorf("%w: event start and end times are required", storage.ErrInvalidInput)
	}
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = now
	}
	return nil
}

func marshalAttendees(attendees []string) (sql.NullString, error) {
	if len(attendees) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(attendees)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal attendees: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time assertion that EventStore satisfies the storage interface.
var _ storage.EventStore = (*EventStore)(nil)
