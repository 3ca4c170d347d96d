package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, models []string, maxRetries int) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(OpenAIConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL + "/v1",
		Models:       models,
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	require.Error(t, err)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
}

func TestAskReturnsTrimmedAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Equal(t, "judge it", req.Messages[0].Content)
		require.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(completionResponse("  30 - good use of state images \n"))
	}, []string{"gpt-4o-mini"}, 0)

	answer, err := client.Ask(context.Background(), "judge it", "print('hi')")
	require.NoError(t, err)
	require.Equal(t, "30 - good use of state images", answer)
}

func TestAskFallsThroughModelChain(t *testing.T) {
	var requests int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Model == "primary" {
			http.Error(w, `{"error": {"message": "model overloaded"}}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("fallback answer"))
	}, []string{"primary", "secondary"}, 0)

	answer, err := client.Ask(context.Background(), "judge it", "code")
	require.NoError(t, err)
	require.Equal(t, "fallback answer", answer)
	require.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestAskRetriesBeforeFallingThrough(t *testing.T) {
	var requests int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) < 3 {
			http.Error(w, `{"error": {"message": "transient"}}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("eventually"))
	}, []string{"only-model"}, 2)

	answer, err := client.Ask(context.Background(), "judge it", "code")
	require.NoError(t, err)
	require.Equal(t, "eventually", answer)
	require.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestAskExhaustedChainReturnsServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "down"}}`, http.StatusInternalServerError)
	}, []string{"a", "b"}, 0)

	_, err := client.Ask(context.Background(), "judge it", "code")
	require.Error(t, err)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	require.Equal(t, "ask", serviceErr.Op)
}

func TestAskEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "chatcmpl-test", "object": "chat.completion", "choices": []interface{}{},
		})
	}, []string{"only-model"}, 0)

	_, err := client.Ask(context.Background(), "judge it", "code")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestAskHonoursCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "down"}}`, http.StatusInternalServerError)
	}, []string{"a", "b"}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Ask(ctx, "judge it", "code")
	require.Error(t, err)
}
