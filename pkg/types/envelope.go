package types

// OperationEnvelope is the uniform {ok, data, error} result shape returned by
// every dispatcher-invoked operation. Data carries one of the typed payload
// structs below depending on the operation; callers that only care about
// success never need operation-specific result types.
type OperationEnvelope struct {
	Ok    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// FailureEnvelope builds an error envelope with the given message.
func FailureEnvelope(msg string) OperationEnvelope {
	return OperationEnvelope{Ok: false, Error: msg}
}

// SuccessEnvelope builds a success envelope carrying data.
func SuccessEnvelope(data interface{}) OperationEnvelope {
	return OperationEnvelope{Ok: true, Data: data}
}

// EventSummary is the serialized event shape carried in save and list
// envelopes. Timestamps use the wire layout (see TimeLayout).
type EventSummary struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Start             string `json:"start"`
	End               string `json:"end"`
	Timezone          string `json:"timezone"`
	Location          string `json:"location,omitempty"`
	ClientReferenceID string `json:"client_reference_id,omitempty"`
}

// SummarizeEvent projects an Event into its envelope form.
func SummarizeEvent(e *Event) EventSummary {
	return EventSummary{
		ID:                e.ID,
		Title:             e.Title,
		Start:             FormatTime(e.StartTime),
		End:               FormatTime(e.EndTime),
		Timezone:          e.Timezone,
		Location:          e.Location,
		ClientReferenceID: e.ClientReferenceID,
	}
}

// UpdateEventData is the payload of a successful update_event envelope.
type UpdateEventData struct {
	ID      int64 `json:"id"`
	Updated bool  `json:"updated"`
}

// CancelEventData is the payload of a successful cancel_event envelope.
type CancelEventData struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// ListEventsData is the payload of a successful list_events envelope.
type ListEventsData struct {
	Events []EventSummary `json:"events"`
	Total  int            `json:"total"`
}
