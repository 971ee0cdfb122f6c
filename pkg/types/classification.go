package types

import "time"

// Intent is the user's inferred desired action, one of create/update/cancel/list.
type Intent string

// Intent constants
const (
	IntentCreate Intent = "create"
	IntentUpdate Intent = "update"
	IntentCancel Intent = "cancel"
	IntentList   Intent = "list"
)

// IsValidIntent reports whether s is one of the four known intents.
func IsValidIntent(s string) bool {
	switch Intent(s) {
	case IntentCreate, IntentUpdate, IntentCancel, IntentList:
		return true
	}
	return false
}

// Calendar tool names. These are the exact operation identifiers the
// dispatcher presents outward and the tool server accepts.
const (
	ToolSaveEvent   = "calendar.save_event"
	ToolUpdateEvent = "calendar.update_event"
	ToolCancelEvent = "calendar.cancel_event"
	ToolListEvents  = "calendar.list_events"
)

// ToolForIntent maps an intent to the tool that realizes it.
// Unknown intents map to ToolSaveEvent, matching the create default.
func ToolForIntent(intent Intent) string {
	switch intent {
	case IntentUpdate:
		return ToolUpdateEvent
	case IntentCancel:
		return ToolCancelEvent
	case IntentList:
		return ToolListEvents
	default:
		return ToolSaveEvent
	}
}

// ExtractedEvent holds the candidate event fields pulled out of the user's
// text by the classifier. Every field is optional; nil pointers mean the
// field was not mentioned.
type ExtractedEvent struct {
	Title             string     `json:"title,omitempty"`
	Start             *time.Time `json:"start,omitempty"`
	End               *time.Time `json:"end,omitempty"`
	Timezone          string     `json:"timezone,omitempty"`
	Location          string     `json:"location,omitempty"`
	Attendees         []string   `json:"attendees,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	ClientReferenceID string     `json:"client_reference_id,omitempty"`
}

// ClassificationSource records which branch of the classifier produced a
// result: the language model or the deterministic keyword fallback.
type ClassificationSource string

// Classification source constants
const (
	SourceModel    ClassificationSource = "model"
	SourceFallback ClassificationSource = "fallback"
)

// ClassificationResult is the ephemeral per-request output of the classifier.
// It feeds exactly one dispatch and is discarded afterwards (it may be echoed
// back to the caller in diagnostics).
type ClassificationResult struct {
	Intent        Intent               `json:"intent"`
	Confidence    float64              `json:"confidence"`
	Extracted     *ExtractedEvent      `json:"extracted_event,omitempty"`
	MissingFields []string             `json:"missing_fields"`
	ToolToCall    string               `json:"tool_to_call"`
	Source        ClassificationSource `json:"source"`
}
