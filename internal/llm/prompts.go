// Package llm provides LLM integration for calendar intent classification.
// It includes a strict JSON-only prompt template and a response parser that
// work with Ollama, OpenAI, and Anthropic models, all protected by a
// circuit breaker.
package llm

import (
	"fmt"
	"time"
)

// IntentClassificationPrompt generates a strict JSON-only prompt that
// classifies a natural-language calendar request and extracts event fields.
//
// Parameters:
//   - userText: the raw user request to classify
//   - now: the reference time used for resolving relative dates
//
// Returns a prompt string that will elicit JSON-only responses from the LLM.
func IntentClassificationPrompt(userText string, now time.Time) string {
	return fmt.Sprintf(`You are an AI assistant that classifies user intents for a calendar system and extracts event information.

Your task is to:
1. Classify the user's intent as one of: create, update, cancel, list
2. Extract event information from the user's message
3. Determine which tool should be called
4. Identify any missing required fields

Available tools:
- calendar.save_event: For creating new events
- calendar.update_event: For updating existing events
- calendar.cancel_event: For canceling events
- calendar.list_events: For listing events

Required fields for events:
- title (required)
- start (required)
- end (required, must be after start)

Optional fields:
- timezone (default to user's timezone if not specified)
- location
- attendees (list of email addresses)
- notes
- client_reference_id (for idempotency)

Return your response as a JSON object with this exact structure:
{
  "intent": "create|update|cancel|list",
  "confidence": 0.95,
  "extracted_event": {
    "title": "Meeting Title",
    "start": "2024-07-01T10:00:00Z",
    "end": "2024-07-01T11:00:00Z",
    "timezone": "UTC",
    "location": "Conference Room",
    "attendees": ["email1@example.com"],
    "notes": "Additional notes",
    "client_reference_id": "unique-id"
  },
  "missing_fields": ["field1", "field2"],
  "tool_to_call": "calendar.save_event"
}

Today's date is %s.
For ambiguous dates like 'tomorrow' or 'next week', make reasonable assumptions based on today's date.
For missing times, assume business hours (9 AM - 5 PM).
Always respond with valid JSON only.

User request: %s`, now.UTC().Format("2006-01-02"), userText)
}
