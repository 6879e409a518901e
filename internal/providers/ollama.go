package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider runs chat generation against a local Ollama server.
type OllamaProvider struct {
	alias   string
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(alias, baseURL, model string) *OllamaProvider {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	// Allow a direct model in the provider list, e.g. ollama:qwen2.5:7b
	if a := strings.TrimSpace(alias); a != "" && (strings.Contains(a, ":") || strings.Contains(a, "-") || strings.Contains(a, ".")) {
		model = a
	}
	if strings.TrimSpace(model) == "" {
		model = "qwen2.5:7b"
	}
	return &OllamaProvider{
		alias:   alias,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (o *OllamaProvider) info() ProviderInfo {
	return ProviderInfo{Name: "ollama", Model: o.model, Key: o.alias}
}

func (o *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})
	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	body := map[string]any{
		"model":    o.model,
		"messages": messages,
		"stream":   false,
		"options":  options,
	}
	if req.JSON {
		body["format"] = "json"
	}
	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama chat request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama chat error %d: %s", resp.StatusCode, string(raw))
	}
	var parsed struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GenerateResponse{}, o.info(), fmt.Errorf("decode ollama chat response: %w", err)
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return GenerateResponse{}, o.info(), fmt.Errorf("ollama returned empty message")
	}
	return GenerateResponse{Text: parsed.Message.Content}, o.info(), nil
}
