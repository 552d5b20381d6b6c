package ai

import (
	"context"
	"fmt"
)

// Roles used in provider-bound message sequences.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a provider request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProviderConfig is one URL/key/model triple from the settings blob. An
// empty BaseURL selects the native Gemini client; anything else is treated
// as an OpenAI-compatible endpoint.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Configured reports whether the triple can be used at all.
func (c ProviderConfig) Configured() bool {
	return c.APIKey != "" && c.Model != ""
}

// ProviderError carries the upstream HTTP status so the transport layer can
// propagate it verbatim.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client is the capability surface over a configured LLM backend. Two
// implementations exist: the native Gemini client and the generic
// OpenAI-compatible HTTP client.
type Client interface {
	// GenerateText sends a role-tagged conversation and returns the raw
	// model reply.
	GenerateText(ctx context.Context, messages []Message, temperature float64) (string, error)

	// GenerateVision describes an image given as raw bytes.
	GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)

	// GenerateImage produces an image for the prompt and returns it as a
	// data URI or hosted URL.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
