package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messagesResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": text}},
	}
}

func TestAnthropicComplete(t *testing.T) {
	var gotKey, gotVersion string
	var gotReq anthropicMessagesRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		require.NoError(t, json.NewEncoder(w).Encode(messagesResponse("hello back")))
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	text, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello back", text)
	assert.Equal(t, "sk-test", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "claude-sonnet-4-20250514", gotReq.Model)
	assert.Equal(t, 1024, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "hello", gotReq.Messages[0].Content)
}

func TestAnthropicComplete_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestAnthropicComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty content")
}

func TestAnthropicComplete_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	assert.Equal(t, "closed", client.CircuitState())

	for i := 0; i < 3; i++ {
		_, err := client.Complete(context.Background(), "hello")
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.CircuitState())

	// An open circuit rejects without touching the upstream.
	before := atomic.LoadInt64(&calls)
	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, before, atomic.LoadInt64(&calls))
}

func TestAnthropicComplete_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(messagesResponse("unused")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := client.Complete(ctx, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGetModel(t *testing.T) {
	client := NewAnthropicClient(AnthropicConfig{Model: "claude-custom"})
	assert.Equal(t, "claude-custom", client.GetModel())
}
