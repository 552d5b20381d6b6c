package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIClient talks to any endpoint implementing the OpenAI REST shape.
type OpenAIClient struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewOpenAIClient(cfg ProviderConfig, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIClient{cfg: cfg, httpClient: httpClient}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) GenerateText(ctx context.Context, messages []Message, temperature float64) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	status, respBody, err := c.post(ctx, c.cfg.BaseURL+"/chat/completions", body)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &ProviderError{StatusCode: status, Message: extractAPIError(respBody)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response content in choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// GenerateVision sends the image as an OpenAI-style multimodal user turn
// (image_url part carrying the data URI).
func (c *OpenAIClient) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if prompt == "" {
		prompt = visionInstruction
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURI}},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	status, respBody, err := c.post(ctx, c.cfg.BaseURL+"/chat/completions", body)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &ProviderError{StatusCode: status, Message: extractAPIError(respBody)}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response content in choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// GenerateImage posts to /images/generations, retrying with progressively
// looser request bodies because compatible providers disagree on which
// fields they accept. A 401 or 404 ends the attempt immediately.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	variants := []map[string]any{
		{"model": c.cfg.Model, "prompt": prompt, "n": 1, "size": "1024x1024", "response_format": "b64_json"},
		{"model": c.cfg.Model, "prompt": prompt, "n": 1},
		{"model": c.cfg.Model, "prompt": prompt},
	}

	var lastStatus int
	var lastBody []byte
	for _, variant := range variants {
		body, err := json.Marshal(variant)
		if err != nil {
			return "", fmt.Errorf("error marshaling request: %w", err)
		}

		status, respBody, err := c.post(ctx, c.cfg.BaseURL+"/images/generations", body)
		if err != nil {
			return "", err
		}
		if status >= 200 && status <= 299 {
			return decodeImagePayload(respBody)
		}

		lastStatus = status
		lastBody = respBody
		if status == http.StatusUnauthorized || status == http.StatusNotFound {
			// Definitive auth / not-found failure, no point trying looser bodies.
			break
		}
	}

	message := extractAPIError(lastBody)
	if strings.Contains(message, "bad response status") {
		message += "（请检查绘图模型名称、API Key 以及该 Key 是否有生图权限）"
	}
	return "", &ProviderError{StatusCode: lastStatus, Message: message}
}

// decodeImagePayload prefers inline base64 data over a hosted URL.
func decodeImagePayload(body []byte) (string, error) {
	var parsed imageGenerationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("error unmarshaling image response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return "", fmt.Errorf("image response contained no data")
	}
	if parsed.Data[0].B64JSON != "" {
		return "data:image/png;base64," + parsed.Data[0].B64JSON, nil
	}
	if parsed.Data[0].URL != "" {
		return parsed.Data[0].URL, nil
	}
	return "", fmt.Errorf("image response contained neither b64_json nor url")
}

func (c *OpenAIClient) post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("error reading response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// extractAPIError digs a human-readable message out of a provider error
// body, falling back to the raw text.
func extractAPIError(body []byte) string {
	if len(body) == 0 {
		return "empty error body"
	}
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}
