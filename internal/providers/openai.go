package providers

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIProvider uses the OpenAI chat completions API.
type OpenAIProvider struct {
	chatClient
}

func NewOpenAIProvider(keyName, defaultKey, model, baseURL string) *OpenAIProvider {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{chatClient{
		name:    "openai",
		keyName: keyName,
		apiKey:  resolveKey("KDCFLOW_OPENAI_KEY_", keyName, defaultKey),
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}}
}

// resolveKey prefers an alias-specific key (e.g. KDCFLOW_OPENAI_KEY_TEAM for
// "openai:team") over the provider's default key.
func resolveKey(prefix, alias, fallback string) string {
	if alias != "" {
		if k := os.Getenv(prefix + sanitizeEnvToken(alias)); k != "" {
			return k
		}
	}
	return fallback
}

func sanitizeEnvToken(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
