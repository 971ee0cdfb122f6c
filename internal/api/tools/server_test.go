package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/scrypster/almanac/internal/dispatch"
	"github.com/scrypster/almanac/internal/storage/sqlite"
	"github.com/scrypster/almanac/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.NewEventStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewServer(dispatch.NewExecutor(store))
}

func handle(t *testing.T, srv *Server, request string) JSONRPCResponse {
	t.Helper()
	raw, err := srv.HandleRequest(context.Background(), []byte(request))
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	var resp JSONRPCResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	return resp
}

func TestInitialize(t *testing.T) {
	srv := newTestServer(t)

	resp := handle(t, srv, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"0.1"}}}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "almanac" {
		t.Errorf("server name = %v", info["name"])
	}
}

func TestToolsList(t *testing.T) {
	srv := newTestServer(t)

	resp := handle(t, srv, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	toolList := result["tools"].([]interface{})
	if len(toolList) != 4 {
		t.Fatalf("len(tools) = %d, want 4", len(toolList))
	}

	names := map[string]bool{}
	for _, raw := range toolList {
		tool := raw.(map[string]interface{})
		names[tool["name"].(string)] = true
		if tool["inputSchema"] == nil {
			t.Errorf("tool %v has no input schema", tool["name"])
		}
	}
	for _, want := range []string{types.ToolSaveEvent, types.ToolUpdateEvent, types.ToolCancelEvent, types.ToolListEvents} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestToolsCallSaveEvent(t *testing.T) {
	srv := newTestServer(t)
	start := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339)

	req := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"calendar.save_event","arguments":{"title":"Demo","start":"` + start + `","end":"` + end + `","client_reference_id":"ref-mcp"}}}`
	resp := handle(t, srv, req)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("unexpected tool error: %v", result)
	}
	content := result["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)

	var envelope types.OperationEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		t.Fatalf("content is not an envelope: %v", err)
	}
	if !envelope.Ok {
		t.Fatalf("envelope = %+v", envelope)
	}
}

func TestToolsCallValidationFailureSetsIsError(t *testing.T) {
	srv := newTestServer(t)

	req := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"calendar.save_event","arguments":{"title":""}}}`
	resp := handle(t, srv, req)
	if resp.Error != nil {
		t.Fatalf("rpc error = %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	if isErr, _ := result["isError"].(bool); !isErr {
		t.Fatal("expected isError for validation failure")
	}
	text := result["content"].([]interface{})[0].(map[string]interface{})["text"].(string)
	if !strings.Contains(text, "Title is required") {
		t.Errorf("content = %q", text)
	}
}

func TestNativeMethodDispatch(t *testing.T) {
	srv := newTestServer(t)

	resp := handle(t, srv, `{"jsonrpc":"2.0","id":5,"method":"calendar.list_events","params":{"limit":10}}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	if ok, _ := result["ok"].(bool); !ok {
		t.Fatalf("envelope = %v", result)
	}
}

func TestUnknownToolInsideCall(t *testing.T) {
	srv := newTestServer(t)

	req := `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"calendar.nope","arguments":{}}}`
	resp := handle(t, srv, req)
	if resp.Error != nil {
		t.Fatalf("rpc error = %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	if isErr, _ := result["isError"].(bool); !isErr {
		t.Fatal("expected isError for unknown tool")
	}
}

func TestProtocolErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		request  string
		wantCode int
	}{
		{"parse error", `{not json`, ErrCodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"tools/list"}`, ErrCodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"calendar/vaporize"}`, ErrCodeMethodNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, srv, tt.request)
			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestStdioTransportRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"t","version":"1"}}}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	transport := NewStdioTransport(srv, in, &out)
	if err := transport.Serve(context.Background()); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d response lines, want 2", len(lines))
	}
	for i, line := range lines {
		var resp JSONRPCResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("line %d is not valid JSON-RPC: %v", i, err)
		}
		if resp.Error != nil {
			t.Errorf("line %d error = %+v", i, resp.Error)
		}
	}
}
