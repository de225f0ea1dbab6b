// Package llm provides the language-model integration used for capture
// classification and digest generation. It exposes a single-turn completion
// interface backed by the Anthropic Messages API, with a circuit breaker
// protecting callers from a degraded upstream.
package llm

import "context"

// TextGenerator is the interface for single-turn LLM text completion.
// Classification and digest prompts are both plain prompt-in/text-out.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}
