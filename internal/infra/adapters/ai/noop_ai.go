package ai

import (
	"context"

	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/adapter"
)

var _ adapter.ChatProvider = (*NoopAIAdapter)(nil)

// NoopAIAdapter is wired when no provider key is configured. Every chat call
// answers with domain.ErrUseFallback, so the ritual runs on static content.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return estimateTokens(messages), nil
}

func (a *NoopAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	return "", adapter.Usage{}, domain.ErrUseFallback
}
