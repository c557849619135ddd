//go:build !integration

package sched

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/storage"
	"act-companion/internal/usecase"
)

func TestExpiryWorker_Sweep(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	kv := storage.NewMemoryKV()
	reg := usecase.NewRegistry(func(userID string) (repository.SessionRepository, repository.HistoryRepository) {
		scoped := storage.NewPrefixed(kv, userID)
		return storage.NewSessionStore(scoped, &logger), storage.NewHistoryStore(scoped, &logger)
	}, usecase.FlowDeps{DefaultMode: model.PrivacyPersist, Now: clock, Logger: &logger})

	persisted := reg.Get(ctx, "alice")
	_ = reg.Get(ctx, "bob").SetPrivacyMode(ctx, model.PrivacySession)
	oldID := persisted.Session().ID

	w := NewExpiryWorker(time.Minute, time.Hour, reg, &logger)
	w.now = clock

	t.Run("should leave fresh sessions alone", func(t *testing.T) {
		if expired, evicted := w.Sweep(ctx); expired != 0 || evicted != 0 {
			t.Errorf("expired=%d evicted=%d", expired, evicted)
		}
	})

	t.Run("should replace sessions past their expiry", func(t *testing.T) {
		now = now.Add(model.SessionRetention + time.Minute)
		expired, _ := w.Sweep(ctx)
		if expired != 1 {
			t.Fatalf("expected only the persisted session to expire, got %d", expired)
		}
		if persisted.Session().ID == oldID {
			t.Error("expired session was not replaced")
		}
	})

	t.Run("should evict idle controllers", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		w.Sweep(ctx)
		if reg.Len() != 0 {
			t.Errorf("len = %d", reg.Len())
		}
	})
}
