package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doc2book/doc2book/pkg/providers"
)

func completionJSON(content string) string {
	return `{
		"id": "chatcmpl-test",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "` + content + `"},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
	}`
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("translated text")))
	}))
	defer server.Close()

	p := New(Config{APIKey: "test-key", BaseURL: server.URL, DefaultModel: "gpt-4o-mini"})
	resp, err := p.Complete(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "translate this"}},
		providers.CompletionOptions{SystemPrompt: "You are a translator.", MaxTokens: 100},
	)

	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, "translated text", resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 19, resp.Usage.TotalTokens)
	assert.Greater(t, resp.ResponseTime.Nanoseconds(), int64(0))

	msgs, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2, "system prompt is prepended as a system message")
	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
}

func TestCompleteNoChoicesIsNormalizedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"m","choices":[],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "test-key", BaseURL: server.URL})
	resp, err := p.Complete(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		providers.CompletionOptions{},
	)

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "no choices returned", resp.Error)
}

func TestCompleteTransportErrorPropagates(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close() // refused connections are the transport-error path

	p := New(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := p.Complete(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "hi"}},
		providers.CompletionOptions{},
	)

	assert.Error(t, err)
}

func TestIsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("pong")))
	}))
	defer server.Close()

	p := New(Config{APIKey: "test-key", BaseURL: server.URL})
	assert.True(t, p.IsAvailable(context.Background()))

	server.Close()
	assert.False(t, p.IsAvailable(context.Background()))
}

func TestModelsFallsBackToConfiguredList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Models:  []string{"local-llama", "local-mistral"},
	})

	assert.Equal(t, []string{"local-llama", "local-mistral"}, p.Models(context.Background()))
}

func TestBuildMessagesRoleMapping(t *testing.T) {
	msgs := buildMessages([]providers.Message{
		{Role: providers.RoleSystem, Content: "be brief"},
		{Role: providers.RoleUser, Content: "question"},
		{Role: providers.RoleAssistant, Content: "answer"},
	}, "outer system")

	assert.Len(t, msgs, 4)
}
