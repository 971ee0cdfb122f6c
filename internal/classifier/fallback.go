package classifier

import (
	"strings"
	"time"

	"github.com/scrypster/almanac/pkg/types"
)

// fallbackConfidence is the fixed confidence assigned to keyword-based
// classifications. It is deliberately below typical model confidence so
// downstream consumers can tell the two apart.
const fallbackConfidence = 0.7

// fallbackTitleLimit caps the length of the title derived from the raw
// request text before truncation marks it with an ellipsis.
const fallbackTitleLimit = 100

// intentKeywords maps trigger words in the request to intents. Checked in
// create, update, cancel, list order; first match wins.
var intentKeywords = []struct {
	intent types.Intent
	words  []string
}{
	{types.IntentCreate, []string{"schedule", "create", "add", "book"}},
	{types.IntentUpdate, []string{"update", "change", "modify"}},
	{types.IntentCancel, []string{"cancel", "delete", "remove"}},
	{types.IntentList, []string{"list", "show", "view"}},
}

// Fallback produces a deterministic keyword-based classification for when the
// model is unavailable or returned an unusable response. The same text and
// reference time always yield the same result.
func Fallback(text string, now time.Time) *types.ClassificationResult {
	intent := intentFromKeywords(text)
	start := now.UTC().Add(time.Hour)
	end := now.UTC().Add(2 * time.Hour)

	return &types.ClassificationResult{
		Intent:     intent,
		Confidence: fallbackConfidence,
		Extracted: &types.ExtractedEvent{
			Title:    titleFromText(text),
			Start:    &start,
			End:      &end,
			Timezone: "UTC",
		},
		MissingFields: []string{},
		ToolToCall:    types.ToolForIntent(intent),
		Source:        types.SourceFallback,
	}
}

func intentFromKeywords(text string) types.Intent {
	lower := strings.ToLower(text)
	for _, group := range intentKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.intent
			}
		}
	}
	// Default assumption
	return types.IntentCreate
}

// titleFromText truncates by runes, not bytes, so multi-byte input keeps
// valid UTF-8 and exactly-at-limit text passes through untouched.
func titleFromText(text string) string {
	runes := []rune(text)
	if len(runes) > fallbackTitleLimit {
		return string(runes[:fallbackTitleLimit]) + "..."
	}
	return text
}
