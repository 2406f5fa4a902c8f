package llm

import (
	"context"
)

// MockInferenceClient is a configurable mock for testing inference branches.
// Set the function field to control behavior in tests.
type MockInferenceClient struct {
	// InferFunc is called when Infer is invoked.
	// If nil, returns an empty result and nil error.
	InferFunc func(ctx context.Context, prompt string, maxTokens int) (*InferenceResult, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification
	InferCalls   int
	LastPrompt   string
	LastMaxToken int
}

// NewMockInferenceClient creates a new mock with sensible defaults.
func NewMockInferenceClient() *MockInferenceClient {
	return &MockInferenceClient{
		ModelName: "mock-model",
	}
}

// Infer implements InferenceClient.
func (m *MockInferenceClient) Infer(ctx context.Context, prompt string, maxTokens int) (*InferenceResult, error) {
	m.InferCalls++
	m.LastPrompt = prompt
	m.LastMaxToken = maxTokens
	if m.InferFunc != nil {
		return m.InferFunc(ctx, prompt, maxTokens)
	}
	return &InferenceResult{}, nil
}

// Model implements InferenceClient.
func (m *MockInferenceClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears call tracking.
func (m *MockInferenceClient) Reset() {
	m.InferCalls = 0
	m.LastPrompt = ""
	m.LastMaxToken = 0
}

// Ensure MockInferenceClient implements InferenceClient at compile time.
var _ InferenceClient = (*MockInferenceClient)(nil)
