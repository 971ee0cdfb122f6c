package sqlite

// Schema is the embedded DDL for the events table. It is applied on every
// open; CREATE TABLE IF NOT EXISTS makes that idempotent.
//
// client_reference_id carries a UNIQUE constraint. SQLite treats NULLs as
// distinct for uniqueness, so events without an idempotency key (stored as
// NULL) never collide while at most one row can hold a given key.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	start_time TIMESTAMP NOT NULL,
	end_time TIMESTAMP NOT NULL,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	location TEXT,
	description TEXT,
	notes TEXT,
	attendees TEXT,
	client_reference_id TEXT UNIQUE,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_start_time ON events(start_time);
`
