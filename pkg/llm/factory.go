package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ethosworks/ethos-engine/pkg/config"
)

// NewFromConfig constructs the configured inference client, or (nil, nil)
// when no endpoint is configured. A nil client disables the pipeline's AI
// fallback branches; it is not an error.
func NewFromConfig(cfg *config.AIConfig, logger *zap.Logger) (InferenceClient, error) {
	if !cfg.IsAvailable() {
		return nil, nil
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}, logger)
	case "", "openai":
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint: cfg.BaseURL,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
