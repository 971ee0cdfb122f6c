package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/scrypster/almanac/pkg/types"
)

// stubGenerator returns a canned response or error for every completion.
type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) GetModel() string { return "stub-model" }

func TestClassifyModelPath(t *testing.T) {
	gen := &stubGenerator{response: `{
		"intent": "create",
		"confidence": 0.92,
		"extracted_event": {
			"title": "Dentist",
			"start": "2026-09-01T14:00:00Z",
			"end": "2026-09-01T15:00:00Z",
			"timezone": "UTC"
		},
		"missing_fields": [],
		"tool_to_call": "calendar.save_event"
	}`}

	c := New(gen)
	result := c.Classify(context.Background(), "book a dentist appointment", time.Now())

	if result.Source != types.SourceModel {
		t.Errorf("source = %q, want model", result.Source)
	}
	if result.Intent != types.IntentCreate {
		t.Errorf("intent = %q, want create", result.Intent)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", result.Confidence)
	}
	if result.Extracted == nil || result.Extracted.Title != "Dentist" {
		t.Errorf("extracted = %+v", result.Extracted)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
}

func TestClassifyFallsBackOnCompletionError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection refused")}
	c := New(gen)

	result := c.Classify(context.Background(), "schedule a team lunch", time.Now())

	if result.Source != types.SourceFallback {
		t.Errorf("source = %q, want fallback", result.Source)
	}
	if result.Intent != types.IntentCreate {
		t.Errorf("intent = %q, want create", result.Intent)
	}
	if result.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", result.Confidence)
	}
}

func TestClassifyFallsBackOnGarbageResponse(t *testing.T) {
	gen := &stubGenerator{response: "I am sorry, I cannot help with that."}
	c := New(gen)

	result := c.Classify(context.Background(), "cancel my standup", time.Now())

	if result.Source != types.SourceFallback {
		t.Errorf("source = %q, want fallback", result.Source)
	}
	if result.Intent != types.IntentCancel {
		t.Errorf("intent = %q, want cancel", result.Intent)
	}
}

func TestClassifyNilGenerator(t *testing.T) {
	c := New(nil)
	result := c.Classify(context.Background(), "show my events", time.Now())

	if result.Source != types.SourceFallback {
		t.Errorf("source = %q, want fallback", result.Source)
	}
	if result.Intent != types.IntentList {
		t.Errorf("intent = %q, want list", result.Intent)
	}
	if c.Model() != "fallback" {
		t.Errorf("Model() = %q, want fallback", c.Model())
	}
}

func TestFallbackKeywordIntents(t *testing.T) {
	tests := []struct {
		text string
		want types.Intent
	}{
		{"schedule a meeting with Bob", types.IntentCreate},
		{"create an event for Friday", types.IntentCreate},
		{"add lunch to my calendar", types.IntentCreate},
		{"book the conference room", types.IntentCreate},
		{"update my dentist appointment", types.IntentUpdate},
		{"change the standup to 10am", types.IntentUpdate},
		{"modify tomorrow's review", types.IntentUpdate},
		{"cancel the planning session", types.IntentCancel},
		{"delete that event", types.IntentCancel},
		{"remove my 3pm", types.IntentCancel},
		{"list my events this week", types.IntentList},
		{"show me tomorrow", types.IntentList},
		{"view my calendar", types.IntentList},
		{"something about dinner", types.IntentCreate}, // default
	}

	now := time.Now()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result := Fallback(tt.text, now)
			if result.Intent != tt.want {
				t.Errorf("intent = %q, want %q", result.Intent, tt.want)
			}
			if result.ToolToCall != types.ToolForIntent(tt.want) {
				t.Errorf("tool = %q, want %q", result.ToolToCall, types.ToolForIntent(tt.want))
			}
		})
	}
}

func TestFallbackDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	text := "schedule a design review"

	a := Fallback(text, now)
	b := Fallback(text, now)

	if a.Intent != b.Intent || a.Confidence != b.Confidence || a.ToolToCall != b.ToolToCall {
		t.Error("expected identical classifications for identical input")
	}
	if !a.Extracted.Start.Equal(*b.Extracted.Start) || !a.Extracted.End.Equal(*b.Extracted.End) {
		t.Error("expected identical placeholder times for identical reference time")
	}
	if !a.Extracted.Start.Equal(now.Add(time.Hour)) {
		t.Errorf("start = %v, want now+1h", a.Extracted.Start)
	}
	if !a.Extracted.End.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("end = %v, want now+2h", a.Extracted.End)
	}
}

func TestFallbackTitleTruncation(t *testing.T) {
	now := time.Now()

	short := Fallback("schedule lunch", now)
	if short.Extracted.Title != "schedule lunch" {
		t.Errorf("short title = %q", short.Extracted.Title)
	}

	long := ""
	for i := 0; i < 30; i++ {
		long += "schedule "
	}
	result := Fallback(long, now)
	if got := []rune(result.Extracted.Title); len(got) != 103 {
		t.Errorf("truncated title length = %d runes, want 103", len(got))
	}
	if !strings.HasSuffix(result.Extracted.Title, "...") {
		t.Errorf("expected ellipsis suffix, got %q", result.Extracted.Title)
	}
}

func TestFallbackTitleTruncationMultibyte(t *testing.T) {
	now := time.Now()

	// Exactly at the limit in runes, well past it in bytes. Must pass
	// through untouched.
	atLimit := "a" + strings.Repeat("é", 99)
	if got := Fallback(atLimit, now).Extracted.Title; got != atLimit {
		t.Errorf("title = %q, want input unchanged", got)
	}

	over := strings.Repeat("é", 150)
	result := Fallback(over, now)
	title := result.Extracted.Title
	if !utf8.ValidString(title) {
		t.Fatalf("truncated title is not valid UTF-8: %q", title)
	}
	if got := []rune(title); len(got) != 103 {
		t.Errorf("truncated title length = %d runes, want 103", len(got))
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("expected ellipsis suffix, got %q", title)
	}
	if want := strings.Repeat("é", 100) + "..."; title != want {
		t.Errorf("title = %q, want first 100 runes plus ellipsis", title)
	}
}
