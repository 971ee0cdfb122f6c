package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/scrypster/almanac/pkg/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON object",
			input: `{"intent": "create"}`,
			want:  `{"intent": "create"}`,
		},
		{
			name:  "markdown code block",
			input: "```json\n{\"intent\": \"create\"}\n```",
			want:  `{"intent": "create"}`,
		},
		{
			name:  "surrounding prose",
			input: `Here is the classification: {"intent": "list"} Hope that helps!`,
			want:  `{"intent": "list"}`,
		},
		{
			name:  "nested objects",
			input: `{"a": {"b": {"c": 1}}}`,
			want:  `{"a": {"b": {"c": 1}}}`,
		},
		{
			name:  "braces inside strings",
			input: `{"title": "Q3 {planning}"}`,
			want:  `{"title": "Q3 {planning}"}`,
		},
		{
			name:  "escaped quotes inside strings",
			input: `{"title": "say \"hi\""}`,
			want:  `{"title": "say \"hi\""}`,
		},
		{
			name:  "no JSON at all",
			input: "I could not classify that request.",
			want:  "I could not classify that request.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseIntentClassificationValid(t *testing.T) {
	raw := "```json\n" + `{
		"intent": "create",
		"confidence": 0.95,
		"extracted_event": {
			"title": "Team sync",
			"start": "2026-07-01T10:00:00Z",
			"end": "2026-07-01T11:00:00Z",
			"timezone": "UTC",
			"location": "Room 2",
			"attendees": ["a@example.com", ""],
			"notes": "weekly",
			"client_reference_id": "ref-1"
		},
		"missing_fields": [],
		"tool_to_call": "calendar.save_event"
	}` + "\n```"

	result, err := ParseIntentClassification(raw)
	if err != nil {
		t.Fatalf("ParseIntentClassification failed: %v", err)
	}

	if result.Intent != types.IntentCreate {
		t.Errorf("intent = %q, want create", result.Intent)
	}
	if result.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", result.Confidence)
	}
	if result.ToolToCall != types.ToolSaveEvent {
		t.Errorf("tool = %q, want %q", result.ToolToCall, types.ToolSaveEvent)
	}
	if result.Extracted == nil {
		t.Fatal("expected extracted event")
	}
	if result.Extracted.Title != "Team sync" {
		t.Errorf("title = %q", result.Extracted.Title)
	}
	wantStart := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	if result.Extracted.Start == nil || !result.Extracted.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", result.Extracted.Start, wantStart)
	}
	if len(result.Extracted.Attendees) != 1 {
		t.Errorf("attendees = %v, want empty entries dropped", result.Extracted.Attendees)
	}
	if result.Extracted.ClientReferenceID != "ref-1" {
		t.Errorf("client reference = %q", result.Extracted.ClientReferenceID)
	}
}

func TestParseIntentClassificationErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "malformed JSON",
			input:   `{"intent": "create"`,
			wantErr: "malformed",
		},
		{
			name:    "unknown intent",
			input:   `{"intent": "reschedule", "confidence": 0.9}`,
			wantErr: "invalid intent",
		},
		{
			name:    "empty intent",
			input:   `{"confidence": 0.9}`,
			wantErr: "invalid intent",
		},
		{
			name:    "confidence above one",
			input:   `{"intent": "create", "confidence": 1.5}`,
			wantErr: "out of range",
		},
		{
			name:    "negative confidence",
			input:   `{"intent": "list", "confidence": -0.1}`,
			wantErr: "out of range",
		},
		{
			name:    "no JSON",
			input:   "sorry, I can't do that",
			wantErr: "malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIntentClassification(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseIntentClassificationDefaultsTool(t *testing.T) {
	tests := []struct {
		intent string
		tool   string
		want   string
	}{
		{"create", "", types.ToolSaveEvent},
		{"update", "", types.ToolUpdateEvent},
		{"cancel", "", types.ToolCancelEvent},
		{"list", "", types.ToolListEvents},
		{"create", "calendar.made_up_tool", types.ToolSaveEvent},
		{"list", "calendar.list_events", types.ToolListEvents},
	}

	for _, tt := range tests {
		raw := `{"intent": "` + tt.intent + `", "confidence": 0.8, "tool_to_call": "` + tt.tool + `"}`
		result, err := ParseIntentClassification(raw)
		if err != nil {
			t.Fatalf("intent %q: %v", tt.intent, err)
		}
		if result.ToolToCall != tt.want {
			t.Errorf("intent %q tool %q: got %q, want %q", tt.intent, tt.tool, result.ToolToCall, tt.want)
		}
	}
}

func TestParseIntentClassificationBadTimestamps(t *testing.T) {
	raw := `{
		"intent": "create",
		"confidence": 0.9,
		"extracted_event": {
			"title": "Lunch",
			"start": "next tuesday at noon",
			"end": "2026-07-01"
		}
	}`

	result, err := ParseIntentClassification(raw)
	if err != nil {
		t.Fatalf("ParseIntentClassification failed: %v", err)
	}
	if result.Extracted.Start != nil {
		t.Errorf("expected unparseable start to be nil, got %v", result.Extracted.Start)
	}
	if result.Extracted.End == nil {
		t.Error("expected date-only end to parse")
	}
}

func TestIntentClassificationPromptIncludesDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	prompt := IntentClassificationPrompt("schedule lunch tomorrow", now)

	if !strings.Contains(prompt, "2026-08-31") {
		t.Error("expected prompt to include reference date")
	}
	if !strings.Contains(prompt, "schedule lunch tomorrow") {
		t.Error("expected prompt to include user request")
	}
	if !strings.Contains(prompt, "calendar.save_event") {
		t.Error("expected prompt to list available tools")
	}
}
