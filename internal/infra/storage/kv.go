// Package storage keeps the active session and the completed-session history
// in a key-value string store.
package storage

import (
	"context"
	"sync"

	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/repository"
)

var _ repository.StateStore = (*MemoryKV)(nil)

// MemoryKV is a process-local StateStore, used when storage.driver=memory and in tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Prefixed scopes every key of an underlying store, so several users can
// share one database while each keeps the fixed session and history keys.
type Prefixed struct {
	kv     repository.StateStore
	prefix string
}

func NewPrefixed(kv repository.StateStore, prefix string) *Prefixed {
	return &Prefixed{kv: kv, prefix: prefix + ":"}
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) Delete(ctx context.Context, key string) error {
	return p.kv.Delete(ctx, p.prefix+key)
}
