package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/scrypster/almanac/pkg/types"
)

// defaultListLimit caps list_events results routed from natural-language
// requests, where the user cannot specify a limit explicitly.
const defaultListLimit = 50

// Router assembles tool parameters from a classification result and invokes
// the matching Executor operation.
type Router struct {
	executor *Executor
}

// NewRouter creates a Router over the given executor.
func NewRouter(executor *Executor) *Router {
	return &Router{executor: executor}
}

// Route executes the tool named by the classification. Save operations
// without a client reference get a generated one so retried requests that
// reuse the classification stay idempotent.
func (r *Router) Route(ctx context.Context, cls *types.ClassificationResult) types.OperationEnvelope {
	switch cls.ToolToCall {
	case types.ToolSaveEvent:
		if cls.Extracted == nil {
			return types.FailureEnvelope("No event data extracted for save operation")
		}
		ref := cls.Extracted.ClientReferenceID
		if ref == "" {
			ref = uuid.NewString()
		}
		return r.executor.SaveEvent(ctx, SaveEventParams{
			Title:             cls.Extracted.Title,
			Start:             cls.Extracted.Start,
			End:               cls.Extracted.End,
			Timezone:          defaultTimezone(cls.Extracted.Timezone),
			Location:          cls.Extracted.Location,
			Attendees:         cls.Extracted.Attendees,
			Notes:             cls.Extracted.Notes,
			ClientReferenceID: ref,
		})

	case types.ToolUpdateEvent:
		if cls.Extracted == nil {
			return types.FailureEnvelope("No event data extracted for update operation")
		}
		params := UpdateEventParams{
			ClientReferenceID: cls.Extracted.ClientReferenceID,
			Title:             cls.Extracted.Title,
			Start:             cls.Extracted.Start,
			End:               cls.Extracted.End,
			Attendees:         cls.Extracted.Attendees,
		}
		if loc := strings.TrimSpace(cls.Extracted.Location); loc != "" {
			params.Location = &loc
		}
		if notes := strings.TrimSpace(cls.Extracted.Notes); notes != "" {
			params.Notes = &notes
		}
		return r.executor.UpdateEvent(ctx, params)

	case types.ToolCancelEvent:
		if cls.Extracted == nil {
			return types.FailureEnvelope("No event data extracted for cancel operation")
		}
		return r.executor.CancelEvent(ctx, CancelEventParams{
			ClientReferenceID: cls.Extracted.ClientReferenceID,
		})

	case types.ToolListEvents:
		params := ListEventsParams{Limit: defaultListLimit}
		if cls.Extracted != nil {
			params.StartDate = cls.Extracted.Start
			params.EndDate = cls.Extracted.End
		}
		return r.executor.ListEvents(ctx, params)

	default:
		return types.FailureEnvelope(fmt.Sprintf("Unknown or unsupported tool: %s", cls.ToolToCall))
	}
}

func defaultTimezone(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}
