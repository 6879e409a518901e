package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kdcflow/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager holds the configured providers in preference order and fails over
// between them. It is safe for concurrent use.
type Manager struct {
	llmProviders []NamedLLMProvider
	cooldown     time.Duration
	recorder     CallRecorder
	log          *zap.Logger

	mu            sync.Mutex
	disabledUntil map[int]time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewManager(cfg config.Config) (*Manager, error) {
	refs := ParseProviderList(cfg.LLMProviders)
	named := make([]NamedLLMProvider, 0, len(refs))
	for _, ref := range refs {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		named = append(named, NamedLLMProvider{Ref: ref, Provider: p})
	}
	m := NewManagerWith(named...)
	if cfg.ProviderCooldownSecs > 0 {
		m.cooldown = time.Duration(cfg.ProviderCooldownSecs) * time.Second
	}
	return m, nil
}

// NewManagerWith builds a manager from explicit providers. An empty list
// falls back to the mock provider.
func NewManagerWith(named ...NamedLLMProvider) *Manager {
	if len(named) == 0 {
		named = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider()}}
	}
	return &Manager{
		llmProviders:  named,
		cooldown:      15 * time.Minute,
		log:           zap.NewNop(),
		disabledUntil: map[int]time.Time{},
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

func (m *Manager) WithRecorder(r CallRecorder) *Manager {
	m.recorder = r
	return m
}

func (m *Manager) WithLogger(l *zap.Logger) *Manager {
	if l != nil {
		m.log = l
	}
	return m
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func (m *Manager) FindLLMProviderByName(name string) (LLMProvider, ProviderRef, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil, ProviderRef{}, false
	}
	for i := range m.llmProviders {
		if strings.ToLower(m.llmProviders[i].Ref.Name) == target {
			return m.llmProviders[i].Provider, m.llmProviders[i].Ref, true
		}
	}
	return nil, ProviderRef{}, false
}

// Generate tries providers in preferred order. Quota errors park a provider
// for the cooldown, rate and transient errors retry the same provider up to
// twice with a short backoff, and context-length errors stop immediately.
// Cancellation returns at once without parking the provider.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var lastErr error
	retries := map[int]int{}
	order := m.PreferredLLMOrder()
	for pos := 0; pos < len(order); pos++ {
		if err := ctx.Err(); err != nil {
			return GenerateResponse{}, ProviderInfo{}, err
		}
		idx := order[pos]
		if m.isDisabled(idx) {
			continue
		}
		named := m.llmProviders[idx]
		start := m.now()
		resp, info, err := named.Provider.Generate(ctx, req)
		latency := m.now().Sub(start).Milliseconds()
		if info.Name == "" {
			info.Name = named.Ref.Name
		}
		if err == nil {
			m.record(ctx, req, info, "ok", "", latency)
			return resp, info, nil
		}
		lastErr = fmt.Errorf("llm generate via %s failed: %w", named.Ref.Raw, err)
		errType := ClassifyError(err)
		m.record(ctx, req, info, "failed", string(errType), latency)
		m.log.Warn("llm call failed",
			zap.String("provider", named.Ref.Label()),
			zap.String("operation", req.Operation),
			zap.String("error_type", string(errType)),
			zap.Error(err))

		// A cancelled or expired request is not the provider's fault.
		if ctx.Err() != nil || errType == ErrorCanceled {
			return GenerateResponse{}, info, lastErr
		}

		retries[idx]++
		switch errType {
		case ErrorQuota:
			m.disable(idx, m.cooldown)
		case ErrorRate:
			if retries[idx] <= 2 {
				if err := m.sleep(ctx, time.Duration(retries[idx]*2)*time.Second); err != nil {
					return GenerateResponse{}, info, err
				}
				pos--
			} else {
				m.disable(idx, 2*time.Minute)
			}
		case ErrorTransient:
			if retries[idx] <= 2 {
				if err := m.sleep(ctx, time.Duration(retries[idx])*time.Second); err != nil {
					return GenerateResponse{}, info, err
				}
				pos--
			}
		case ErrorContext:
			return GenerateResponse{}, info, lastErr
		default:
			m.disable(idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = errors.New("all llm providers exhausted")
	}
	return GenerateResponse{}, ProviderInfo{}, lastErr
}

func (m *Manager) record(ctx context.Context, req GenerateRequest, info ProviderInfo, status, errType string, latency int64) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.RecordLLMCall(ctx, CallRecord{
		Operation:    req.Operation,
		RequestID:    req.RequestID,
		ProviderName: info.Name,
		Model:        info.Model,
		Status:       status,
		ErrorType:    errType,
		LatencyMS:    latency,
	})
	if err != nil {
		m.log.Debug("record llm call", zap.Error(err))
	}
}

func (m *Manager) isDisabled(idx int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.disabledUntil[idx]
	return ok && m.now().Before(until)
}

func (m *Manager) disable(idx int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabledUntil[idx] = m.now().Add(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func buildProvider(ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias, cfg.OpenAIKey, modelOr(ref.Model, cfg.OpenAIModel), cfg.OpenAIBaseURL), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias, cfg.GroqKey, modelOr(ref.Model, cfg.GroqModel)), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias, cfg.OllamaBaseURL, modelOr(ref.Model, cfg.OllamaModel)), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias, cfg.GeminiKey, modelOr(ref.Model, cfg.GeminiModel)), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
