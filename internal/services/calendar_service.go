// Package services holds the structured calendar API. Unlike the dispatch
// path, which reports failures inside envelopes, the service returns typed
// Go errors: ValidationErrors for rejected input and NotFoundError for
// missing events.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/almanac/internal/storage"
	"github.com/scrypster/almanac/pkg/types"
)

// CalendarService exposes CRUD operations over events for the REST surface.
type CalendarService struct {
	store storage.EventStore
}

// NewCalendarService creates a CalendarService backed by the given store.
func NewCalendarService(store storage.EventStore) *CalendarService {
	return &CalendarService{store: store}
}

// Create validates the DTO and stores a new event.
func (s *CalendarService) Create(ctx context.Context, dto *types.CreateEventDTO) (*types.Event, error) {
	if errs := dto.Validate(time.Now().UTC()); errs != nil {
		return nil, errs
	}

	event := &types.Event{
		Title:       strings.TrimSpace(dto.Title),
		Description: strings.TrimSpace(dto.Description),
		StartTime:   dto.StartTime.UTC(),
		EndTime:     dto.EndTime.UTC(),
		Timezone:    dto.Timezone,
		Location:    strings.TrimSpace(dto.Location),
		Attendees:   dto.Attendees,
	}
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}

	if err := s.store.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// Get retrieves an event by ID.
func (s *CalendarService) Get(ctx context.Context, id int64) (*types.Event, error) {
	event, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &types.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// Update applies a partial update to an existing event. Present DTO fields
// overwrite stored values; the merged event must still end after it starts.
func (s *CalendarService) Update(ctx context.Context, id int64, dto *types.UpdateEventDTO) (*types.Event, error) {
	if errs := dto.Validate(); errs != nil {
		return nil, errs
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Title != nil {
		event.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Description != nil {
		event.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.StartTime != nil {
		event.StartTime = dto.StartTime.UTC()
	}
	if dto.EndTime != nil {
		event.EndTime = dto.EndTime.UTC()
	}
	if dto.Timezone != nil && *dto.Timezone != "" {
		event.Timezone = *dto.Timezone
	}
	if dto.Location != nil {
		event.Location = strings.TrimSpace(*dto.Location)
	}
	if dto.Notes != nil {
		event.Notes = strings.TrimSpace(*dto.Notes)
	}
	if dto.Attendees != nil {
		event.Attendees = dto.Attendees
	}

	if !event.EndTime.After(event.StartTime) {
		errs := types.ValidationErrors{}
		errs.Add("end_time", "end time must be after start time")
		return nil, errs
	}

	if err := s.store.Update(ctx, event); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &types.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// Delete removes an event by ID.
func (s *CalendarService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &types.NotFoundError{ID: id}
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// List returns events in the given window, ordered by start time.
func (s *CalendarService) List(ctx context.Context, opts storage.ListOptions) ([]*types.Event, error) {
	events, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
