package llm

import (
	"fmt"
	"strings"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// NewCompleter creates a completion client based on configuration
func NewCompleter(config Config) (Completer, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		config.Provider = "openai"
		return NewOpenAIProvider(config)

	case "openrouter":
		if config.BaseURL == "" {
			config.BaseURL = OpenRouterBaseURL
		}
		return NewOpenAIProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, openrouter)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider: modelConfig.Provider,
		Model:    modelConfig.Model,
		APIKey:   modelConfig.APIKey,
		BaseURL:  modelConfig.BaseURL,
		Timeout:  modelConfig.Timeout,
	}
}
