package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/almanac/pkg/types"
)

// timeLayouts are the timestamp formats accepted from model output, tried in
// order. Models mostly emit RFC 3339 but occasionally drop the zone suffix.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// wireClassification mirrors the JSON contract the classification prompt
// instructs the model to produce. Timestamps stay strings here so a single
// malformed field degrades to an absent value instead of failing the parse.
type wireClassification struct {
	Intent         string     `json:"intent"`
	Confidence     float64    `json:"confidence"`
	ExtractedEvent *wireEvent `json:"extracted_event"`
	MissingFields  []string   `json:"missing_fields"`
	ToolToCall     string     `json:"tool_to_call"`
}

type wireEvent struct {
	Title             string   `json:"title"`
	Start             string   `json:"start"`
	End               string   `json:"end"`
	Timezone          string   `json:"timezone"`
	Location          string   `json:"location"`
	Attendees         []string `json:"attendees"`
	Notes             string   `json:"notes"`
	ClientReferenceID string   `json:"client_reference_id"`
}

// extractJSON extracts a JSON object from text that may contain markdown
// code blocks or surrounding prose. It finds the first brace and scans for
// its matching close, ignoring braces inside strings.
func extractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let parser fail
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// ParseIntentClassification parses the model's classification response.
// It tolerates markdown fences and extra prose around the JSON object, but
// rejects responses whose intent is not one of the four known intents or
// whose confidence falls outside [0, 1]. Callers treat any error here as a
// signal to fall back to keyword classification.
func ParseIntentClassification(raw string) (*types.ClassificationResult, error) {
	jsonStr := extractJSON(raw)

	var wire wireClassification
	if err := json.Unmarshal([]byte(jsonStr), &wire); err != nil {
		return nil, fmt.Errorf("response_parser: malformed classification JSON: %w", err)
	}

	intentStr := strings.ToLower(strings.TrimSpace(wire.Intent))
	if !types.IsValidIntent(intentStr) {
		return nil, fmt.Errorf("response_parser: invalid intent %q", wire.Intent)
	}
	intent := types.Intent(intentStr)
	if wire.Confidence < 0 || wire.Confidence > 1 {
		return nil, fmt.Errorf("response_parser: confidence %v out of range [0, 1]", wire.Confidence)
	}

	result := &types.ClassificationResult{
		Intent:        intent,
		Confidence:    wire.Confidence,
		MissingFields: compactStrings(wire.MissingFields),
		ToolToCall:    normalizeTool(wire.ToolToCall, intent),
	}

	if wire.ExtractedEvent != nil {
		result.Extracted = &types.ExtractedEvent{
			Title:             strings.TrimSpace(wire.ExtractedEvent.Title),
			Start:             parseWireTime(wire.ExtractedEvent.Start),
			End:               parseWireTime(wire.ExtractedEvent.End),
			Timezone:          strings.TrimSpace(wire.ExtractedEvent.Timezone),
			Location:          strings.TrimSpace(wire.ExtractedEvent.Location),
			Attendees:         compactStrings(wire.ExtractedEvent.Attendees),
			Notes:             strings.TrimSpace(wire.ExtractedEvent.Notes),
			ClientReferenceID: strings.TrimSpace(wire.ExtractedEvent.ClientReferenceID),
		}
	}

	return result, nil
}

// parseWireTime parses a model-emitted timestamp. Unparseable or empty values
// become nil so the dispatch layer reports them as missing fields.
func parseWireTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// normalizeTool maps the model's tool choice onto a known tool, falling back
// to the canonical tool for the intent when the model omits or invents one.
func normalizeTool(tool string, intent types.Intent) string {
	switch tool {
	case types.ToolSaveEvent, types.ToolUpdateEvent, types.ToolCancelEvent, types.ToolListEvents:
		return tool
	default:
		return types.ToolForIntent(intent)
	}
}

func compactStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
