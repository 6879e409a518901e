package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProviderSendsChatRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"813.7"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("", "sk-test", "gpt-4o-mini", srv.URL)
	resp, info, err := p.Generate(context.Background(), GenerateRequest{
		System: "sys", Prompt: "user", MaxTokens: 8, JSON: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "813.7", resp.Text)
	assert.Equal(t, "openai", info.Name)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 8, got["max_tokens"])
	assert.Len(t, got["messages"], 2)
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
}

func TestOpenAIProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	_, _, err := NewOpenAIProvider("", "sk-test", "", srv.URL).Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, ErrorRate, ClassifyError(err))

	_, _, err = NewOpenAIProvider("", "", "", srv.URL).Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key missing")
}

func TestResolveKeyPrefersAlias(t *testing.T) {
	t.Setenv("KDCFLOW_OPENAI_KEY_TEAM_A", "alias-key")
	assert.Equal(t, "alias-key", resolveKey("KDCFLOW_OPENAI_KEY_", "team-a", "default"))
	assert.Equal(t, "default", resolveKey("KDCFLOW_OPENAI_KEY_", "other", "default"))
}

func TestOllamaProviderChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"candidates\":[]}"}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider("qwen2.5:7b", srv.URL, "")
	resp, info, err := p.Generate(context.Background(), GenerateRequest{Prompt: "x", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"candidates":[]}`, resp.Text)
	assert.Equal(t, "qwen2.5:7b", info.Model)
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "json", got["format"])
}

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, info, err := NewGeminiProvider("", "", "").Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, "gemini-2.0-flash", info.Model)
}
