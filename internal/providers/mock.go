package providers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// MockProvider answers offline with the first allowed code listed in the
// prompt. It exists so the pipeline runs end to end without keys.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var previewLineRegex = regexp.MustCompile(`(?m)^- (\d{3}): `)

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-kdc-v1", Key: "mock"}
	code := ""
	if match := previewLineRegex.FindStringSubmatch(req.Prompt); len(match) == 2 {
		code = match[1]
	}
	if code == "" {
		return GenerateResponse{Text: "Mock response."}, info, nil
	}
	if req.JSON || strings.Contains(strings.ToLower(req.Operation), "ranked") {
		text := fmt.Sprintf(`{"candidates":[{"code":%q,"confidence":0.5,"evidence":["mock"],"perspective":"full"}]}`, code)
		return GenerateResponse{Text: text}, info, nil
	}
	return GenerateResponse{Text: code}, info, nil
}
