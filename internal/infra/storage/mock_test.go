//go:build !integration

package storage

import (
	"context"
	"errors"
	"sync"
)

// countingKV records every call so tests can assert on storage traffic.
type countingKV struct {
	mu      sync.Mutex
	inner   *MemoryKV
	gets    int
	sets    int
	deletes int
	setErr  error
}

func newCountingKV() *countingKV {
	return &countingKV{inner: NewMemoryKV()}
}

func (c *countingKV) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.inner.Get(ctx, key)
}

func (c *countingKV) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.sets++
	err := c.setErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.inner.Set(ctx, key, value)
}

func (c *countingKV) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.inner.Delete(ctx, key)
}

func (c *countingKV) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets + c.sets + c.deletes
}

// seed writes directly, bypassing the counters.
func (c *countingKV) seed(key, value string) {
	_ = c.inner.Set(context.Background(), key, value)
}

var errDiskFull = errors.New("disk full")
