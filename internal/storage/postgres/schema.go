package postgres

// Schema is the embedded DDL for the events table. All statements are
// idempotent so the schema can be applied on every open.
//
// The partial unique index on client_reference_id enforces the idempotency
// invariant: at most one row carries a given non-null key, while key-less
// rows never collide.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	location TEXT,
	description TEXT,
	notes TEXT,
	attendees TEXT,
	client_reference_id TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_events_client_reference_id
	ON events(client_reference_id) WHERE client_reference_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_events_start_time ON events(start_time);
`
