package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/almanac/internal/storage"
	"github.com/scrypster/almanac/pkg/types"
)

// Executor carries out calendar tool operations against an EventStore.
// Every method returns an OperationEnvelope; operational failures are
// reported inside the envelope, never as Go errors.
type Executor struct {
	store storage.EventStore
}

// NewExecutor creates an Executor backed by the given store.
func NewExecutor(store storage.EventStore) *Executor {
	return &Executor{store: store}
}

// Dispatch unmarshals raw tool arguments and invokes the named tool.
// Unknown tool names yield a failure envelope, not an error.
func (e *Executor) Dispatch(ctx context.Context, toolName string, args json.RawMessage) types.OperationEnvelope {
	log.Printf("dispatch: tool call %s", toolName)

	switch toolName {
	case types.ToolSaveEvent:
		var params SaveEventParams
		if err := json.Unmarshal(args, &params); err != nil {
			return types.FailureEnvelope("Invalid parameters for save_event")
		}
		return e.SaveEvent(ctx, params)
	case types.ToolUpdateEvent:
		var params UpdateEventParams
		if err := json.Unmarshal(args, &params); err != nil {
			return types.FailureEnvelope("Invalid parameters for update_event")
		}
		return e.UpdateEvent(ctx, params)
	case types.ToolCancelEvent:
		var params CancelEventParams
		if err := json.Unmarshal(args, &params); err != nil {
			return types.FailureEnvelope("Invalid parameters for cancel_event")
		}
		return e.CancelEvent(ctx, params)
	case types.ToolListEvents:
		var params ListEventsParams
		if err := json.Unmarshal(args, &params); err != nil {
			return types.FailureEnvelope("Invalid parameters for list_events")
		}
		return e.ListEvents(ctx, params)
	default:
		return types.FailureEnvelope(fmt.Sprintf("Unknown tool: %s", toolName))
	}
}

// SaveEvent validates the parameters and upserts the event keyed by its
// client reference. Repeated calls with the same reference converge on a
// single stored event.
func (e *Executor) SaveEvent(ctx context.Context, params SaveEventParams) types.OperationEnvelope {
	if msg := validateSaveParams(params); msg != "" {
		return types.FailureEnvelope(msg)
	}

	event := &types.Event{
		Title:             strings.TrimSpace(params.Title),
		StartTime:         params.Start.UTC(),
		EndTime:           params.End.UTC(),
		Timezone:          params.Timezone,
		Location:          strings.TrimSpace(params.Location),
		Description:       strings.TrimSpace(params.Description),
		Notes:             strings.TrimSpace(params.Notes),
		Attendees:         params.Attendees,
		ClientReferenceID: params.ClientReferenceID,
	}
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}

	stored, err := e.store.UpsertByClientReference(ctx, event)
	if err != nil {
		return types.FailureEnvelope(fmt.Sprintf("Save event error: %s", err))
	}

	log.Printf("dispatch: saved event id=%d client_reference_id=%q", stored.ID, stored.ClientReferenceID)
	return types.SuccessEnvelope(types.SummarizeEvent(stored))
}

// UpdateEvent applies a partial update to the event located by ID or, failing
// that, by client reference. The merged event must still end after it starts.
func (e *Executor) UpdateEvent(ctx context.Context, params UpdateEventParams) types.OperationEnvelope {
	event, envelope := e.locate(ctx, params.ID, params.ClientReferenceID)
	if event == nil {
		return envelope
	}

	if title := strings.TrimSpace(params.Title); title != "" {
		event.Title = title
	}
	if params.Start != nil {
		event.StartTime = params.Start.UTC()
	}
	if params.End != nil {
		event.EndTime = params.End.UTC()
	}
	if params.Location != nil {
		event.Location = strings.TrimSpace(*params.Location)
	}
	if params.Notes != nil {
		event.Notes = strings.TrimSpace(*params.Notes)
	}
	if len(params.Attendees) > 0 {
		event.Attendees = params.Attendees
	}

	if !event.EndTime.After(event.StartTime) {
		return types.FailureEnvelope("End time must be after start time")
	}

	if err := e.store.Update(ctx, event); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.FailureEnvelope("Event not found")
		}
		return types.FailureEnvelope(fmt.Sprintf("Update event error: %s", err))
	}

	log.Printf("dispatch: updated event id=%d", event.ID)
	return types.SuccessEnvelope(types.UpdateEventData{ID: event.ID, Updated: true})
}

// CancelEvent deletes the event located by ID or client reference.
func (e *Executor) CancelEvent(ctx context.Context, params CancelEventParams) types.OperationEnvelope {
	event, envelope := e.locate(ctx, params.ID, params.ClientReferenceID)
	if event == nil {
		return envelope
	}

	if err := e.store.Delete(ctx, event.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.FailureEnvelope("Event not found")
		}
		return types.FailureEnvelope(fmt.Sprintf("Cancel event error: %s", err))
	}

	log.Printf("dispatch: cancelled event id=%d", event.ID)
	return types.SuccessEnvelope(types.CancelEventData{ID: event.ID, Deleted: true})
}

// ListEvents returns events in the requested window, ordered by start time.
func (e *Executor) ListEvents(ctx context.Context, params ListEventsParams) types.OperationEnvelope {
	opts := storage.ListOptions{Limit: params.Limit}
	if params.StartDate != nil {
		opts.StartsAfter = params.StartDate.UTC()
	}
	if params.EndDate != nil {
		opts.EndsBefore = params.EndDate.UTC()
	}

	events, err := e.store.List(ctx, opts)
	if err != nil {
		return types.FailureEnvelope(fmt.Sprintf("List events error: %s", err))
	}

	summaries := make([]types.EventSummary, 0, len(events))
	for _, event := range events {
		summaries = append(summaries, types.SummarizeEvent(event))
	}
	return types.SuccessEnvelope(types.ListEventsData{Events: summaries, Total: len(summaries)})
}

// locate resolves an event by ID first, then by client reference. A nil event
// return carries the failure envelope to hand back to the caller.
func (e *Executor) locate(ctx context.Context, id *int64, ref string) (*types.Event, types.OperationEnvelope) {
	var (
		event *types.Event
		err   error
	)
	switch {
	case id != nil:
		event, err = e.store.GetByID(ctx, *id)
	case ref != "":
		event, err = e.store.GetByClientReference(ctx, ref)
	default:
		return nil, types.FailureEnvelope("Event not found")
	}

	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.FailureEnvelope("Event not found")
		}
		return nil, types.FailureEnvelope(fmt.Sprintf("Lookup error: %s", err))
	}
	return event, types.OperationEnvelope{}
}

func validateSaveParams(params SaveEventParams) string {
	if strings.TrimSpace(params.Title) == "" {
		return "Title is required"
	}
	if params.Start == nil || params.Start.IsZero() {
		return "Start time is required"
	}
	if params.End == nil || params.End.IsZero() {
		return "End time is required"
	}
	if !params.End.After(*params.Start) {
		return "End time must be after start time"
	}
	return ""
}
