// File: internal/usecase/registry.go
package usecase

import (
	"context"
	"sync"
	"time"

	"act-companion/internal/domain/ports/repository"
)

// StoreFactory builds the per-user session and history stores.
type StoreFactory func(userID string) (repository.SessionRepository, repository.HistoryRepository)

// Registry keeps one FlowController per user.
type Registry struct {
	mu     sync.Mutex
	ctrls  map[string]*FlowController
	stores StoreFactory
	deps   FlowDeps
}

func NewRegistry(stores StoreFactory, deps FlowDeps) *Registry {
	return &Registry{ctrls: make(map[string]*FlowController), stores: stores, deps: deps}
}

// Get returns the user's controller, loading it from storage on first use.
func (r *Registry) Get(ctx context.Context, userID string) *FlowController {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.ctrls[userID]; ok {
		return c
	}
	sessions, histories := r.stores(userID)
	c := NewFlowController(ctx, userID, sessions, histories, r.deps)
	r.ctrls[userID] = c
	return c
}

// Each calls fn for every loaded controller, outside the registry lock.
func (r *Registry) Each(fn func(c *FlowController)) {
	r.mu.Lock()
	list := make([]*FlowController, 0, len(r.ctrls))
	for _, c := range r.ctrls {
		list = append(list, c)
	}
	r.mu.Unlock()
	for _, c := range list {
		fn(c)
	}
}

// Evict drops controllers unused for longer than idle. Their state is
// already persisted, so the next Get reloads it.
func (r *Registry) Evict(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.ctrls {
		if now.Sub(c.IdleSince()) > idle {
			delete(r.ctrls, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ctrls)
}
