// Package dispatch maps classified calendar intents onto store operations.
// The Router assembles tool parameters from a classification result and the
// Executor carries them out against an EventStore, returning the uniform
// {ok, data, error} envelope for every tool.
package dispatch

import "time"

// SaveEventParams are the arguments of the calendar.save_event tool.
type SaveEventParams struct {
	Title             string     `json:"title"`
	Start             *time.Time `json:"start"`
	End               *time.Time `json:"end"`
	Timezone          string     `json:"timezone,omitempty"`
	Location          string     `json:"location,omitempty"`
	Attendees         []string   `json:"attendees,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Description       string     `json:"description,omitempty"`
	ClientReferenceID string     `json:"client_reference_id,omitempty"`
}

// UpdateEventParams are the arguments of the calendar.update_event tool.
// Absent fields leave the stored value unchanged.
type UpdateEventParams struct {
	ID                *int64     `json:"id,omitempty"`
	ClientReferenceID string     `json:"client_reference_id,omitempty"`
	Title             string     `json:"title,omitempty"`
	Start             *time.Time `json:"start,omitempty"`
	End               *time.Time `json:"end,omitempty"`
	Location          *string    `json:"location,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Attendees         []string   `json:"attendees,omitempty"`
}

// CancelEventParams are the arguments of the calendar.cancel_event tool.
// The target is resolved by ID first, then by client reference.
type CancelEventParams struct {
	ID                *int64 `json:"id,omitempty"`
	ClientReferenceID string `json:"client_reference_id,omitempty"`
}

// ListEventsParams are the arguments of the calendar.list_events tool.
type ListEventsParams struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}
