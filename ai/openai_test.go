package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) ProviderConfig {
	return ProviderConfig{BaseURL: baseURL, APIKey: "test-key", Model: "test-model"}
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestGenerateTextSuccess(t *testing.T) {
	var gotAuth string
	var gotPath string
	var gotReq chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatReply("你好"))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	out, err := client.GenerateText(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, 0.9)

	require.NoError(t, err)
	assert.Equal(t, "你好", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.InDelta(t, 0.9, gotReq.Temperature, 1e-9)
}

func TestGenerateTextTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL+"/"), srv.Client())
	_, err := client.GenerateText(context.Background(), nil, 0)

	require.NoError(t, err)
	assert.Equal(t, "/chat/completions", gotPath)
}

func TestGenerateTextErrorCarriesStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	_, err := client.GenerateText(context.Background(), nil, 0)

	require.Error(t, err)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusNotFound, provErr.StatusCode)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateTextEmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	_, err := client.GenerateText(context.Background(), nil, 0)

	assert.Error(t, err)
}

func TestGenerateImageFirstVariantSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/images/generations", r.URL.Path)
		w.Write([]byte(`{"data":[{"b64_json":"QUJD"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	out, err := client.GenerateImage(context.Background(), "a red circle")

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "data:image/png;base64,QUJD", out)
}

func TestGenerateImageFallsBackThroughVariants(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		if len(bodies) < 3 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"unsupported parameter"}}`))
			return
		}
		w.Write([]byte(`{"data":[{"url":"https://img.example.com/1.png"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	out, err := client.GenerateImage(context.Background(), "a red circle")

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/1.png", out)
	require.Len(t, bodies, 3)
	// The first body is the richest one, the last is minimal.
	assert.Contains(t, bodies[0], "response_format")
	assert.Contains(t, bodies[1], "n")
	assert.NotContains(t, bodies[1], "size")
	assert.NotContains(t, bodies[2], "n")
}

func TestGenerateImageStopsOnUnauthorized(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	_, err := client.GenerateImage(context.Background(), "x")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
}

func TestGenerateImageBadResponseStatusHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"bad response status code 502"}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	_, err := client.GenerateImage(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "绘图模型")
}

func TestGenerateImagePrefersB64OverURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"b64_json":"QUJD","url":"https://img.example.com/1.png"}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(testConfig(srv.URL), srv.Client())
	out, err := client.GenerateImage(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QUJD", out)
}

func TestNewClientSelectsByBaseURL(t *testing.T) {
	openai, err := NewClient(ProviderConfig{BaseURL: "https://api.example.com/v1", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, openai)
}
