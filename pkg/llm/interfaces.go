// Package llm provides inference client implementations for the pipeline's
// AI fallback and refinement branches.
package llm

import (
	"context"
)

// InferenceClient defines the logical inference contract: one prompt in, one
// response text out, with a fixed token budget and no automatic retry.
// Use this interface for dependency injection to enable mocking in tests.
type InferenceClient interface {
	// Infer sends a single prompt and returns the response text.
	Infer(ctx context.Context, prompt string, maxTokens int) (*InferenceResult, error)

	// Model returns the configured model name.
	Model() string
}

// InferenceResult carries the response text plus usage accounting.
type InferenceResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Ensure implementations satisfy InferenceClient at compile time.
var (
	_ InferenceClient = (*OpenAIClient)(nil)
	_ InferenceClient = (*AnthropicClient)(nil)
)
