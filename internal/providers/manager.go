package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"papersum/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager fans a request out over the configured providers in preference
// order until one succeeds. It is itself an LLMProvider.
type Manager struct {
	llmProviders []NamedLLMProvider
	logger       *zap.Logger
}

func NewManager(cfg config.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{logger: logger}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	return m, nil
}

// NewManagerWith wraps already-built providers; used by tests and tools.
func NewManagerWith(logger *zap.Logger, providers ...NamedLLMProvider) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{llmProviders: providers, logger: logger}
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

// SupportsDocuments reports whether any configured provider reads attachments.
func (m *Manager) SupportsDocuments() bool {
	for _, p := range m.llmProviders {
		if SupportsDocuments(p.Provider) {
			return true
		}
	}
	return false
}

func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var errs []error
	attempted := 0
	for _, i := range m.PreferredLLMOrder() {
		named := m.llmProviders[i]
		if req.Document != nil && !SupportsDocuments(named.Provider) {
			continue
		}
		resp, info, err := named.Provider.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		if !errors.Is(err, ErrNotConfigured) {
			attempted++
		}
		m.logger.Warn("provider generate failed",
			zap.String("provider", named.Ref.Raw),
			zap.String("operation", req.Operation),
			zap.String("error_type", string(ClassifyError(err))),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", named.Ref.Raw, err))
		if ctx.Err() != nil {
			break
		}
	}
	if attempted == 0 {
		if len(errs) == 0 {
			return GenerateResponse{}, ProviderInfo{}, ErrNotConfigured
		}
		return GenerateResponse{}, ProviderInfo{}, fmt.Errorf("%w: %v", ErrNotConfigured, errors.Join(errs...))
	}
	return GenerateResponse{}, ProviderInfo{}, errors.Join(errs...)
}

// FindLLMProviderByName matches either the bare provider name or the full
// "name:alias" entry, case-insensitively.
func (m *Manager) FindLLMProviderByName(name string) (NamedLLMProvider, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return NamedLLMProvider{}, false
	}
	for _, p := range m.llmProviders {
		if strings.ToLower(p.Ref.Raw) == target || strings.ToLower(p.Ref.Name) == target {
			return p, true
		}
	}
	return NamedLLMProvider{}, false
}

// Pin narrows the manager to a single configured provider, so callers that
// already hold it stop failing over. Not safe while Generate is running.
func (m *Manager) Pin(name string) error {
	p, ok := m.FindLLMProviderByName(name)
	if !ok {
		return fmt.Errorf("provider %q is not configured", name)
	}
	m.llmProviders = []NamedLLMProvider{p}
	return nil
}

func buildProvider(ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	timeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias, cfg.OpenAIModel, cfg.OpenAIBaseURL, timeout), nil
	case "anthropic":
		return NewAnthropicProvider(ref.KeyAlias, cfg.AnthropicModel, timeout), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias, cfg.GroqModel, timeout), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias, cfg.OllamaBaseURL, cfg.OllamaModel, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
