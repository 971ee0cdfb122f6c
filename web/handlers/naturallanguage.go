package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/scrypster/almanac/internal/classifier"
	"github.com/scrypster/almanac/internal/dispatch"
	"github.com/scrypster/almanac/pkg/types"
)

// ProcessRequest is the body of POST /api/naturallanguage/process.
type ProcessRequest struct {
	Prompt string `json:"prompt"`
}

// ProcessLogs carries the pipeline trace returned with a processed command.
type ProcessLogs struct {
	LLMOutput   string `json:"llm_output"`
	MCPCall     string `json:"mcp_call"`
	DBOperation string `json:"db_operation"`
}

// ProcessResponse is the response for the natural language endpoint.
type ProcessResponse struct {
	Success       bool         `json:"success"`
	Result        interface{}  `json:"result,omitempty"`
	Error         string       `json:"error,omitempty"`
	MissingFields []string     `json:"missing_fields,omitempty"`
	Suggestion    string       `json:"suggestion,omitempty"`
	LLMOutput     string       `json:"llm_output,omitempty"`
	MCPCall       string       `json:"mcp_call,omitempty"`
	Logs          *ProcessLogs `json:"logs,omitempty"`
}

// NaturalLanguageHandlers runs free-form calendar commands through the
// classification and dispatch pipeline.
type NaturalLanguageHandlers struct {
	classifier *classifier.Classifier
	router     *dispatch.Router
	hub        *WebSocketHub
}

// NewNaturalLanguageHandlers creates the natural language handlers. The hub
// may be nil when WebSocket notifications are disabled.
func NewNaturalLanguageHandlers(c *classifier.Classifier, router *dispatch.Router, hub *WebSocketHub) *NaturalLanguageHandlers {
	return &NaturalLanguageHandlers{classifier: c, router: router, hub: hub}
}

// Process handles POST /api/naturallanguage/process.
func (h *NaturalLanguageHandlers) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}

	cls := h.classifier.Classify(r.Context(), req.Prompt, time.Now().UTC())
	llmOutput := describeClassification(cls)

	if err := dispatch.CheckMissingFields(cls); err != nil {
		var missing *dispatch.MissingFieldsError
		if errors.As(err, &missing) {
			respondJSON(w, http.StatusBadRequest, ProcessResponse{
				Success:       false,
				Error:         "Missing required information",
				MissingFields: missing.Fields,
				Suggestion:    dispatch.MissingFieldsSuggestion,
				LLMOutput:     llmOutput,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to process command", err)
		return
	}

	mcpCall := describeToolCall(cls)
	envelope := h.router.Route(r.Context(), cls)
	if !envelope.Ok {
		respondJSON(w, http.StatusInternalServerError, ProcessResponse{
			Success:   false,
			Error:     envelope.Error,
			LLMOutput: llmOutput,
			MCPCall:   mcpCall,
		})
		return
	}

	h.notifyMutation(envelope.Data)
	respondJSON(w, http.StatusOK, ProcessResponse{
		Success: true,
		Result:  envelope.Data,
		Logs: &ProcessLogs{
			LLMOutput:   llmOutput,
			MCPCall:     mcpCall,
			DBOperation: describeDBOperation(cls.ToolToCall),
		},
	})
}

// describeClassification renders the classification for the response trace.
func describeClassification(cls *types.ClassificationResult) string {
	data, err := json.Marshal(cls)
	if err != nil {
		return fmt.Sprintf("intent=%s tool=%s", cls.Intent, cls.ToolToCall)
	}
	return string(data)
}

// describeToolCall renders the dispatched tool invocation.
func describeToolCall(cls *types.ClassificationResult) string {
	if cls.Extracted == nil {
		return cls.ToolToCall
	}
	data, err := json.Marshal(cls.Extracted)
	if err != nil {
		return cls.ToolToCall
	}
	return fmt.Sprintf("%s %s", cls.ToolToCall, data)
}

func describeDBOperation(tool string) string {
	switch tool {
	case types.ToolSaveEvent:
		return "upsert event"
	case types.ToolUpdateEvent:
		return "update event"
	case types.ToolCancelEvent:
		return "delete event"
	case types.ToolListEvents:
		return "select events"
	default:
		return ""
	}
}

// notifyMutation pushes a WebSocket notification for write operations.
func (h *NaturalLanguageHandlers) notifyMutation(data interface{}) {
	if h.hub == nil {
		return
	}
	switch payload := data.(type) {
	case types.EventSummary:
		h.hub.BroadcastMutation(MutationEventCreated, payload.ID, &payload)
	case types.UpdateEventData:
		h.hub.BroadcastMutation(MutationEventUpdated, payload.ID, nil)
	case types.CancelEventData:
		h.hub.BroadcastMutation(MutationEventCancelled, payload.ID, nil)
	}
}
