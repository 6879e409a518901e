package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type GenerateRequest struct {
	Operation   string  `json:"operation"`
	RequestID   string  `json:"request_id,omitempty"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	// JSON asks the provider for a JSON object response when it supports one.
	JSON bool `json:"json,omitempty"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

// CallRecord describes one provider attempt, successful or not.
type CallRecord struct {
	Operation    string
	RequestID    string
	ProviderName string
	Model        string
	Status       string
	ErrorType    string
	LatencyMS    int64
}

// CallRecorder receives every attempt made by a Manager.
type CallRecorder interface {
	RecordLLMCall(ctx context.Context, rec CallRecord) error
}
