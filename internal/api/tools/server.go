package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scrypster/almanac/internal/dispatch"
	"github.com/scrypster/almanac/pkg/types"
)

// serverVersion is reported in the initialize handshake.
const serverVersion = "1.0.0"

// Server routes JSON-RPC 2.0 requests to the calendar tool executor. The
// four calendar tools are reachable both through the standard MCP
// tools/call method and as native JSON-RPC methods.
type Server struct {
	executor *dispatch.Executor
	name     string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerName overrides the server name reported during initialize.
func WithServerName(name string) ServerOption {
	return func(s *Server) { s.name = name }
}

// NewServer creates an MCP server over the given executor.
func NewServer(executor *dispatch.Executor, opts ...ServerOption) *Server {
	s := &Server{
		executor: executor,
		name:     "almanac",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleRequest processes a single raw JSON-RPC request frame and returns the
// serialized response frame.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte) ([]byte, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, "Parse error", err.Error())
	}

	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version", nil)
	}

	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result = s.initializeResult()
	case "initialized":
		// Notification; return an empty object to keep the framing simple.
		result = map[string]interface{}{}
	case "tools/list":
		result = MCPToolsListResult{Tools: s.buildToolsList()}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req.Params)

	// The calendar tools double as native JSON-RPC methods for direct callers.
	case types.ToolSaveEvent, types.ToolUpdateEvent, types.ToolCancelEvent, types.ToolListEvents:
		result, err = s.invokeTool(ctx, req.Method, req.Params)

	default:
		return s.errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	if err != nil {
		return s.errorResponse(req.ID, ErrCodeServerError, err.Error(), nil)
	}
	return s.successResponse(req.ID, result)
}

func (s *Server) initializeResult() MCPInitializeResult {
	return MCPInitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: MCPServerCapabilities{
			Tools: &MCPToolsCapability{},
		},
		ServerInfo: MCPServerInfo{
			Name:    s.name,
			Version: serverVersion,
		},
	}
}

// handleToolsCall dispatches a tools/call request and wraps the operation
// envelope in the MCP content format.
func (s *Server) handleToolsCall(ctx context.Context, params interface{}) (interface{}, error) {
	var p MCPToolCallParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}

	envelope, err := s.invokeTool(ctx, p.Name, p.Arguments)
	if err != nil {
		return nil, err
	}

	text, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tool result: %w", err)
	}

	return &MCPToolCallResult{
		Content: []MCPToolCallContent{{Type: "text", Text: string(text)}},
		IsError: !envelope.Ok,
	}, nil
}

// invokeTool runs a calendar tool by name. Tool-level failures land inside
// the returned envelope; only serialization problems surface as errors.
func (s *Server) invokeTool(ctx context.Context, tool string, params interface{}) (types.OperationEnvelope, error) {
	args, err := json.Marshal(params)
	if err != nil {
		return types.OperationEnvelope{}, fmt.Errorf("failed to marshal tool arguments: %w", err)
	}
	return s.executor.Dispatch(ctx, tool, args), nil
}

// buildToolsList describes the four calendar tools for tools/list.
func (s *Server) buildToolsList() []MCPTool {
	timeProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "format": "date-time", "description": desc}
	}

	return []MCPTool{
		{
			Name:        types.ToolSaveEvent,
			Description: "Create a calendar event, or overwrite the event carrying the same client_reference_id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":               map[string]interface{}{"type": "string", "description": "Event title"},
					"start":               timeProp("Event start time (RFC 3339, UTC)"),
					"end":                 timeProp("Event end time, must be after start"),
					"timezone":            map[string]interface{}{"type": "string", "description": "IANA timezone name (default UTC)"},
					"location":            map[string]interface{}{"type": "string"},
					"attendees":           map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"notes":               map[string]interface{}{"type": "string"},
					"description":         map[string]interface{}{"type": "string"},
					"client_reference_id": map[string]interface{}{"type": "string", "description": "Idempotency key"},
				},
				"required": []string{"title", "start", "end"},
			},
		},
		{
			Name:        types.ToolUpdateEvent,
			Description: "Partially update an event located by id or client_reference_id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":                  map[string]interface{}{"type": "integer", "description": "Event ID"},
					"client_reference_id": map[string]interface{}{"type": "string"},
					"title":               map[string]interface{}{"type": "string"},
					"start":               timeProp("New start time"),
					"end":                 timeProp("New end time"),
					"location":            map[string]interface{}{"type": "string"},
					"notes":               map[string]interface{}{"type": "string"},
					"attendees":           map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
			},
		},
		{
			Name:        types.ToolCancelEvent,
			Description: "Delete an event located by id or client_reference_id.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":                  map[string]interface{}{"type": "integer", "description": "Event ID"},
					"client_reference_id": map[string]interface{}{"type": "string"},
				},
			},
		},
		{
			Name:        types.ToolListEvents,
			Description: "List events ordered by start time, optionally bounded by a time window.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"start_date": timeProp("Only events starting at or after this time"),
					"end_date":   timeProp("Only events ending at or before this time"),
					"limit":      map[string]interface{}{"type": "integer", "description": "Maximum results (default 50, max 500)"},
				},
			},
		},
	}
}

// unmarshalParams converts loosely-typed request params into a concrete type
// by round-tripping through JSON.
func unmarshalParams(params interface{}, target interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal params: %w", err)
	}
	return nil
}

// successResponse creates a JSON-RPC success response.
func (s *Server) successResponse(id interface{}, result interface{}) ([]byte, error) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return json.Marshal(resp)
}

// errorResponse creates a JSON-RPC error response.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) ([]byte, error) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
	return json.Marshal(resp)
}
