package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiProvider wraps the official genai client. The client is created on
// first use so a missing key only fails the calls that need it.
type GeminiProvider struct {
	keyName string
	apiKey  string
	model   string

	once   sync.Once
	cli    *genai.Client
	cliErr error
}

func NewGeminiProvider(keyName, defaultKey, model string) *GeminiProvider {
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		keyName: keyName,
		apiKey:  resolveKey("KDCFLOW_GEMINI_KEY_", keyName, defaultKey),
		model:   model,
	}
}

func (g *GeminiProvider) info() ProviderInfo {
	return ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
}

func (g *GeminiProvider) client(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.cli, g.cliErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.cli, g.cliErr
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if g.apiKey == "" {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}
	cli, err := g.client(ctx)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("create gemini client: %w", err)
	}
	temp := float32(req.Temperature)
	gc := &genai.GenerateContentConfig{Temperature: &temp}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	resp, err := cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		gc,
	)
	if err != nil {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return GenerateResponse{}, g.info(), fmt.Errorf("gemini returned empty candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return GenerateResponse{Text: sb.String()}, g.info(), nil
}
