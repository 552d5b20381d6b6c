package ai

import (
	"errors"
	"net/http"

	"ai-companion-chat/backend/pkg/config"
)

// ErrNotConfigured is returned before any network call when the selected
// capability has no usable configuration.
var ErrNotConfigured = errors.New("provider not configured: set API key and model in settings")

// NewClient selects the concrete provider for a config triple: an empty
// base URL means the native Gemini API, anything else an OpenAI-compatible
// endpoint.
func NewClient(cfg ProviderConfig) (Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		return NewGeminiClient(cfg), nil
	}
	return NewOpenAIClient(cfg, &http.Client{Timeout: config.Get().Chat.RequestTimeout}), nil
}
