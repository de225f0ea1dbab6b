package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mangrove-labs/sortd/internal/llm"
)

// Classifier classifies captured text via a TextGenerator.
type Classifier struct {
	generator llm.TextGenerator
	now       func() time.Time
}

// NewClassifier creates a Classifier backed by the given generator.
func NewClassifier(generator llm.TextGenerator) *Classifier {
	return &Classifier{generator: generator, now: time.Now}
}

// NewClassifierWithClock creates a Classifier with an injectable clock,
// used by tests to pin the date embedded in the prompt.
func NewClassifierWithClock(generator llm.TextGenerator, now func() time.Time) *Classifier {
	return &Classifier{generator: generator, now: now}
}

// modelClassification mirrors the JSON object the model is asked to return.
type modelClassification struct {
	Category   string                 `json:"category"`
	Confidence float64                `json:"confidence"`
	Fields     map[string]interface{} `json:"fields"`
}

// Classify sends the capture text to the model and parses the result.
// A reply that cannot be parsed as the expected schema degrades to
// DefaultClassification; a transport or API failure returns an error so
// callers can distinguish "could not reach classifier" from "classifier
// produced garbage".
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	prompt := fmt.Sprintf("%s\n\nClassify this:\n%q", classificationPrompt(c.now()), text)

	reply, err := c.generator.Complete(ctx, prompt)
	if err != nil {
		return Classification{}, fmt.Errorf("classify: model call failed: %w", err)
	}

	return c.parseReply(reply, text), nil
}

// ClassifyForced classifies under a human-chosen category. The model still
// extracts structured fields, but the category is overridden and the
// confidence is pinned to 1.0 regardless of what the model returns, since
// the category was set by human command.
func (c *Classifier) ClassifyForced(ctx context.Context, text string, category Category) (Classification, error) {
	if !category.IsValid() {
		return Classification{}, fmt.Errorf("classify: unknown category %q", category)
	}

	prompt := fmt.Sprintf("%s\n\nThe user has indicated this capture belongs to the %s category. Extract the fields for that category.\n\nClassify this:\n%q",
		classificationPrompt(c.now()), category, text)

	reply, err := c.generator.Complete(ctx, prompt)
	if err != nil {
		return Classification{}, fmt.Errorf("classify: model call failed: %w", err)
	}

	result := c.parseReply(reply, text)
	result.Category = category
	result.Confidence = 1.0
	return result, nil
}

// parseReply turns the raw model reply into a Classification, degrading to
// the default when the reply is not the expected schema.
func (c *Classifier) parseReply(reply, text string) Classification {
	cleaned := llm.ExtractJSON(reply)

	var parsed modelClassification
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		log.Printf("classify: unparseable model reply, using degraded default: %v", err)
		return DefaultClassification(text)
	}

	category, ok := ParseCategory(parsed.Category)
	if !ok {
		log.Printf("classify: model returned unknown category %q, using degraded default", parsed.Category)
		return DefaultClassification(text)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	fields := parsed.Fields
	if fields == nil {
		fields = map[string]interface{}{}
	}

	return Classification{
		Category:   category,
		Confidence: confidence,
		Fields:     fields,
	}
}
