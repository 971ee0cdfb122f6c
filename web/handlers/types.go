// Package handlers provides the HTTP handlers and middleware for the
// Almanac REST and natural-language APIs.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/scrypster/almanac/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// EventResponse is the serialized event shape returned by the REST API.
type EventResponse struct {
	ID                int64    `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Start             string   `json:"start"`
	End               string   `json:"end"`
	Timezone          string   `json:"timezone"`
	Location          string   `json:"location,omitempty"`
	Notes             string   `json:"notes,omitempty"`
	Attendees         []string `json:"attendees,omitempty"`
	ClientReferenceID string   `json:"client_reference_id,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

// eventResponse projects an Event into its REST form.
func eventResponse(e *types.Event) EventResponse {
	return EventResponse{
		ID:                e.ID,
		Title:             e.Title,
		Description:       e.Description,
		Start:             types.FormatTime(e.StartTime),
		End:               types.FormatTime(e.EndTime),
		Timezone:          e.Timezone,
		Location:          e.Location,
		Notes:             e.Notes,
		Attendees:         e.Attendees,
		ClientReferenceID: e.ClientReferenceID,
		CreatedAt:         types.FormatTime(e.CreatedAt),
		UpdatedAt:         types.FormatTime(e.UpdatedAt),
	}
}

// ListEventsResponse is the response format for GET /api/events.
type ListEventsResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; log only.
		log.Printf("handlers: failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}

// respondValidationErrors writes a 400 with the per-field violation map.
func respondValidationErrors(w http.ResponseWriter, errs types.ValidationErrors) {
	details := make(map[string]interface{}, len(errs))
	for field, msgs := range errs {
		details[field] = msgs
	}
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Code:    http.StatusText(http.StatusBadRequest),
		Details: details,
	})
}

// queryInt parses an integer query parameter, falling back on the default.
func queryInt(r *http.Request, key string, defaultValue int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// queryTime parses an RFC 3339 query parameter. A zero time means absent.
func queryTime(r *http.Request, key string) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
