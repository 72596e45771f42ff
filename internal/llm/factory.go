package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samsaffron/genweb/internal/config"
)

// ErrMissingAPIKey is returned when a provider needs a key and none is set.
var ErrMissingAPIKey = errors.New("API key not found")

// builtInProviders lists every provider name NewProvider understands.
var builtInProviders = []string{"gemini", "anthropic", "openai", "mock"}

// GetBuiltInProviderNames returns the provider names accepted by --provider.
func GetBuiltInProviderNames() []string {
	return append([]string(nil), builtInProviders...)
}

// ParseProviderModel parses "provider:model" or just "provider" from a flag value.
// Returns (provider, model, error). Model will be empty if not specified.
func ParseProviderModel(s string) (string, string, error) {
	provider, model, _ := strings.Cut(s, ":")
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	if provider == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	for _, name := range builtInProviders {
		if provider == name {
			return provider, model, nil
		}
	}
	return "", "", fmt.Errorf("unknown provider: %s", provider)
}

// NewProvider creates the configured provider, wrapped with retry for
// transient failures. The mock provider is never wrapped.
func NewProvider(cfg *config.Config) (Provider, error) {
	provider, err := newProviderInternal(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "mock" {
		return provider, nil
	}
	retry := DefaultRetryConfig()
	if cfg.Generation.Retries > 0 {
		retry.MaxAttempts = cfg.Generation.Retries
	}
	return WrapWithRetry(provider, retry), nil
}

// newProviderInternal creates the underlying provider without retry wrapper.
func newProviderInternal(cfg *config.Config) (Provider, error) {
	if cfg.Provider == "mock" {
		return NewDemoProvider(), nil
	}
	settings := cfg.ProviderSettings(cfg.Provider)
	if settings == nil {
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingAPIKey)
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(settings.APIKey, settings.Model), nil
	case "openai":
		return NewOpenAIProvider(settings.APIKey, settings.Model), nil
	default:
		return NewGeminiProvider(settings.APIKey, settings.Model), nil
	}
}
