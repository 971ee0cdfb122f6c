package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/scrypster/almanac/internal/services"
	"github.com/scrypster/almanac/internal/storage"
	"github.com/scrypster/almanac/pkg/types"
)

// EventHandlers serves the REST CRUD surface for calendar events.
type EventHandlers struct {
	service *services.CalendarService
	hub     *WebSocketHub
}

// NewEventHandlers creates the REST event handlers. The hub may be nil when
// WebSocket notifications are disabled.
func NewEventHandlers(service *services.CalendarService, hub *WebSocketHub) *EventHandlers {
	return &EventHandlers{service: service, hub: hub}
}

// Create handles POST /api/events.
func (h *EventHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var dto types.CreateEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	event, err := h.service.Create(r.Context(), &dto)
	if err != nil {
		var verrs types.ValidationErrors
		if errors.As(err, &verrs) {
			respondValidationErrors(w, verrs)
			return
		}
		if errors.Is(err, storage.ErrDuplicateReference) {
			respondError(w, http.StatusConflict, "client reference already exists", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create event", err)
		return
	}

	h.notify(MutationEventCreated, event)
	respondJSON(w, http.StatusCreated, eventResponse(event))
}

// Get handles GET /api/events/{id}.
func (h *EventHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load event", err)
		return
	}

	respondJSON(w, http.StatusOK, eventResponse(event))
}

// Update handles PATCH /api/events/{id}.
func (h *EventHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var dto types.UpdateEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	event, err := h.service.Update(r.Context(), id, &dto)
	if err != nil {
		var verrs types.ValidationErrors
		if errors.As(err, &verrs) {
			respondValidationErrors(w, verrs)
			return
		}
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update event", err)
		return
	}

	h.notify(MutationEventUpdated, event)
	respondJSON(w, http.StatusOK, eventResponse(event))
}

// Delete handles DELETE /api/events/{id}.
func (h *EventHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete event", err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastMutation(MutationEventCancelled, id, nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/events with optional start_date, end_date and limit
// query parameters.
func (h *EventHandlers) List(w http.ResponseWriter, r *http.Request) {
	startsAfter, err := queryTime(r, "start_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date", err)
		return
	}
	endsBefore, err := queryTime(r, "end_date")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date", err)
		return
	}

	opts := storage.ListOptions{
		StartsAfter: startsAfter,
		EndsBefore:  endsBefore,
		Limit:       queryInt(r, "limit", 0),
	}

	events, err := h.service.List(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list events", err)
		return
	}

	resp := ListEventsResponse{
		Events: make([]EventResponse, 0, len(events)),
		Total:  len(events),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, eventResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *EventHandlers) notify(mutationType string, event *types.Event) {
	if h.hub == nil {
		return
	}
	summary := types.SummarizeEvent(event)
	h.hub.BroadcastMutation(mutationType, event.ID, &summary)
}

// pathID extracts the {id} path segment, writing a 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid event id", nil)
		return 0, false
	}
	return id, true
}
