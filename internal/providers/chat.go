package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// chatClient speaks the OpenAI chat completions protocol, which both OpenAI
// and Groq expose.
type chatClient struct {
	name    string
	keyName string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func (c *chatClient) info() ProviderInfo {
	return ProviderInfo{Name: c.name, Key: c.keyName, Model: c.model}
}

func (c *chatClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if c.apiKey == "" {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s key missing for alias %q", c.name, c.keyName)
	}
	messages := make([]map[string]string, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})
	body := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.JSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s build request: %w", c.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s generate request failed: %w", c.name, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s generate error %d: %s", c.name, resp.StatusCode, string(raw))
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GenerateResponse{}, c.info(), fmt.Errorf("decode %s response: %w", c.name, err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, c.info(), fmt.Errorf("%s returned empty choices", c.name)
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, c.info(), nil
}
