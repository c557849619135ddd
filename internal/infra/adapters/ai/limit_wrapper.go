package ai

import (
	"context"

	"act-companion/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ChatProvider = (*limitedAI)(nil)

// limitedAI caps concurrent provider calls across all sessions.
type limitedAI struct {
	inner adapter.ChatProvider
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.ChatProvider, maxConcurrent int) adapter.ChatProvider {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) release() { <-l.sem }

func (l *limitedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	if err := l.acquire(ctx); err != nil {
		return "", adapter.Usage{}, err
	}
	defer l.release()
	return l.inner.ChatWithUsage(ctx, model, messages)
}

// CountTokens is local work for most providers and is not throttled.
func (l *limitedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, model, messages)
}
