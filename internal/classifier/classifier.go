// Package classifier turns natural-language calendar requests into
// structured classification results. It prefers the configured LLM but
// always degrades to deterministic keyword matching, so classification
// itself never fails outward.
package classifier

import (
	"context"
	"log"
	"time"

	"github.com/scrypster/almanac/internal/llm"
	"github.com/scrypster/almanac/pkg/types"
)

// Classifier classifies calendar requests using a TextGenerator with a
// keyword fallback. A nil generator skips the model path entirely.
type Classifier struct {
	generator llm.TextGenerator
}

// New creates a Classifier backed by the given generator. Pass nil to run
// in fallback-only mode.
func New(generator llm.TextGenerator) *Classifier {
	return &Classifier{generator: generator}
}

// Classify resolves text into a ClassificationResult. The result's Source
// field records which branch produced it: "model" when the LLM returned a
// parseable classification, "fallback" otherwise. Classify never returns
// an error; any model failure is logged and absorbed by the fallback.
func (c *Classifier) Classify(ctx context.Context, text string, now time.Time) *types.ClassificationResult {
	if c.generator == nil {
		return Fallback(text, now)
	}

	prompt := llm.IntentClassificationPrompt(text, now)

	raw, err := c.generator.Complete(ctx, prompt)
	if err != nil {
		log.Printf("classifier: model completion failed, using fallback: %v", err)
		return Fallback(text, now)
	}

	result, err := llm.ParseIntentClassification(raw)
	if err != nil {
		log.Printf("classifier: unusable model response, using fallback: %v", err)
		return Fallback(text, now)
	}

	result.Source = types.SourceModel
	return result
}

// Model returns the name of the backing model, or "fallback" when no
// generator is configured.
func (c *Classifier) Model() string {
	if c.generator == nil {
		return "fallback"
	}
	return c.generator.GetModel()
}
