package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// visionInstruction is the fixed description-elicitation prompt attached to
// every inline image sent for description.
const visionInstruction = "请详细描述这张图片的内容，包括场景、人物、物品、文字和整体氛围。"

// GeminiClient talks to the Gemini API through the official genai SDK.
type GeminiClient struct {
	cfg ProviderConfig
}

func NewGeminiClient(cfg ProviderConfig) *GeminiClient {
	return &GeminiClient{cfg: cfg}
}

func (g *GeminiClient) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// toContents converts role-tagged messages into genai contents. System
// entries are returned separately as the system instruction.
func toContents(messages []Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	var contents []*genai.Content
	var systemParts []string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return system, contents
}

func (g *GeminiClient) GenerateText(ctx context.Context, messages []Message, temperature float64) (string, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	system, contents := toContents(messages)
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(temperature)),
		SystemInstruction: system,
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty reply")
	}
	return text, nil
}

func (g *GeminiClient) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	if prompt == "" {
		prompt = visionInstruction
	}
	parts := []*genai.Part{
		{Text: prompt},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini vision failed: %w", err)
	}
	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty image description")
	}
	return text, nil
}

// GenerateImage asks for an image artifact and returns the first inline
// image payload as a data URI.
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{ImageSize: imageSizeHint(g.cfg.Model)},
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini image generation failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return fmt.Sprintf("data:%s;base64,%s", mime, encoded), nil
			}
		}
	}
	return "", fmt.Errorf("gemini response contained no image data")
}

// imageSizeHint derives the requested resolution from the model name.
func imageSizeHint(model string) string {
	switch {
	case strings.Contains(model, "4k") || strings.Contains(model, "4K"):
		return "4K"
	case strings.Contains(model, "2k") || strings.Contains(model, "2K"):
		return "2K"
	default:
		return "1K"
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}
