package llm

import (
	"fmt"
	"net/http"
	"strings"
)

// Provider identifiers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Defaults per provider.
const (
	GeminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultGeminiModel    = "gemini-flash-latest"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultMaxTokens      = 4096
)

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	MaxRetries int

	// HTTPClient overrides the SDK's default client.
	HTTPClient *http.Client
}

// Providers lists the supported provider identifiers.
func Providers() []string {
	return []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic}
}

// New returns the Model for cfg.Provider. An empty provider means Gemini.
func New(cfg Config) (Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.BaseURL == "" {
			cfg.BaseURL = GeminiBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
		return NewOpenAI(ProviderGemini, cfg), nil
	case ProviderOpenAI:
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
		return NewOpenAI(ProviderOpenAI, cfg), nil
	case ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}
}
