package providers

import (
	"net/http"
	"strings"
	"time"
)

// GroqProvider supports LLM generation via Groq's OpenAI-compatible API.
type GroqProvider struct {
	chatClient
}

func NewGroqProvider(keyName, defaultKey, model string) *GroqProvider {
	if strings.TrimSpace(model) == "" {
		model = "llama-3.1-8b-instant"
	}
	return &GroqProvider{chatClient{
		name:    "groq",
		keyName: keyName,
		apiKey:  resolveKey("KDCFLOW_GROQ_KEY_", keyName, defaultKey),
		model:   model,
		baseURL: "https://api.groq.com/openai/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}}
}
