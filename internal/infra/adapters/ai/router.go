package ai

import (
	"context"
	"strings"

	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/adapter"
)

var _ adapter.ChatProvider = (*ProviderRouter)(nil)

// ProviderRouter sends each call to the provider that serves the model:
// gemini-* to Gemini, gpt-* and o-series names to OpenAI, anything else to
// the fallback provider.
type ProviderRouter struct {
	fallback  string
	providers map[string]adapter.ChatProvider
}

func NewProviderRouter(fallback string, providers map[string]adapter.ChatProvider) *ProviderRouter {
	return &ProviderRouter{fallback: strings.ToLower(fallback), providers: providers}
}

func providerFor(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini"):
		return "gemini"
	case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return "openai"
	}
	return ""
}

// route returns nil when no provider is configured at all.
func (p *ProviderRouter) route(model string) adapter.ChatProvider {
	if a := p.providers[providerFor(model)]; a != nil {
		return a
	}
	return p.providers[p.fallback]
}

func (p *ProviderRouter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	a := p.route(model)
	if a == nil {
		return estimateTokens(messages), nil
	}
	return a.CountTokens(ctx, model, messages)
}

func (p *ProviderRouter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	a := p.route(model)
	if a == nil {
		return "", adapter.Usage{}, domain.ErrUseFallback
	}
	return a.ChatWithUsage(ctx, model, messages)
}
