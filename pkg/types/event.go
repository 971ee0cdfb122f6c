// Package types defines the core data structures for the Almanac calendar
// system: the persisted Event entity, the intent classification result
// produced by the LLM pipeline, and the uniform operation envelope returned
// by every calendar tool operation.
package types

import "time"

// Field length limits enforced by the structured API surface.
const (
	MaxTitleLength       = 200
	MaxLocationLength    = 300
	MaxDescriptionLength = 1000
)

// TimeLayout is the serialized timestamp form used on every wire surface
// (tool parameters, envelope payloads, REST responses).
const TimeLayout = "2006-01-02T15:04:05Z"

// Event represents a single calendar event.
//
// ID is assigned by the store on creation and immutable afterwards.
// ClientReferenceID is an optional caller-supplied idempotency key; at most
// one event carries a given non-empty key at any time (enforced by a unique
// constraint in both storage backends).
type Event struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Timezone          string    `json:"timezone"` // IANA name or "UTC" (default)
	Location          string    `json:"location,omitempty"`
	Description       string    `json:"description,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Attendees         []string  `json:"attendees,omitempty"`           // ordered address list, stored as JSON text
	ClientReferenceID string    `json:"client_reference_id,omitempty"` // idempotency key
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FormatTime serializes a timestamp in the wire layout, always in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
