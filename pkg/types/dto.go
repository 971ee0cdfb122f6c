package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// createStartSkew is how far in the past a new event may start, tolerating
// client clock drift.
const createStartSkew = 5 * time.Minute

// ValidationErrors maps field names to the messages collected for them.
// Validation never stops at the first failure; all violations are aggregated
// so the caller can fix everything in one round trip.
type ValidationErrors map[string][]string

// Add appends a message for a field.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Error implements the error interface with a deterministic field ordering.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", f, strings.Join(v[f], ", "))
	}
	return b.String()
}

// NotFoundError indicates a keyed event lookup failed.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event with ID %d was not found", e.ID)
}

// CreateEventDTO carries the fields for creating an event through the
// structured (non-natural-language) API surface.
type CreateEventDTO struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Timezone    string    `json:"timezone,omitempty"`
	Location    string    `json:"location,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

// Validate checks the DTO against the structured-API invariants and returns
// the aggregated violations, or nil when the DTO is valid.
func (d *CreateEventDTO) Validate(now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		errs.Add("title", "title is required")
	} else if len(title) > MaxTitleLength {
		errs.Add("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}

	if d.StartTime.IsZero() {
		errs.Add("start_time", "start time is required")
	}
	if d.EndTime.IsZero() {
		errs.Add("end_time", "end time is required")
	}
	if !d.StartTime.IsZero() && !d.EndTime.IsZero() && !d.EndTime.After(d.StartTime) {
		errs.Add("end_time", "end time must be after start time")
	}
	if !d.StartTime.IsZero() && d.StartTime.Before(now.Add(-createStartSkew)) {
		errs.Add("start_time", "start time cannot be in the past")
	}

	if len(d.Location) > MaxLocationLength {
		errs.Add("location", fmt.Sprintf("location must be at most %d characters", MaxLocationLength))
	}
	if len(d.Description) > MaxDescriptionLength {
		errs.Add("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// UpdateEventDTO carries a partial update through the structured API surface.
// Nil pointers mean "leave unchanged"; a pointer to an empty string is an
// explicit overwrite to empty.
type UpdateEventDTO struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Timezone    *string    `json:"timezone,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Attendees   []string   `json:"attendees,omitempty"`
}

// Validate checks the fields that are present. Cross-field invariants that
// depend on the merged event (end after start) are re-checked by the service
// after the merge.
func (d *UpdateEventDTO) Validate() ValidationErrors {
	errs := ValidationErrors{}

	if d.Title != nil {
		title := strings.TrimSpace(*d.Title)
		if title == "" {
			errs.Add("title", "title cannot be empty")
		} else if len(title) > MaxTitleLength {
			errs.Add("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
		}
	}
	if d.Location != nil && len(*d.Location) > MaxLocationLength {
		errs.Add("location", fmt.Sprintf("location must be at most %d characters", MaxLocationLength))
	}
	if d.Description != nil && len(*d.Description) > MaxDescriptionLength {
		errs.Add("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}
	if d.StartTime != nil && d.EndTime != nil && !d.EndTime.After(*d.StartTime) {
		errs.Add("end_time", "end time must be after start time")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
