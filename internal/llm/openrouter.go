package llm

import (
	"cmp"
	"fmt"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterProvider returns an OpenAI-protocol client pointed at
// OpenRouter. Its model ids are "vendor/model" and are sent unchanged.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter: %w", ErrMissingAPIKey)
	}
	return newOpenAICompatible(OpenAIConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cmp.Or(cfg.BaseURL, defaultOpenRouterBaseURL),
	}, cfg.Model), nil
}
