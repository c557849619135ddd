//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"act-companion/internal/infra/logging"
)

func TestPool(t *testing.T) {
	t.Run("should run submitted tasks and survive panics", func(t *testing.T) {
		p := NewPool(2, logging.Nop())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		var ran atomic.Int32
		done := make(chan struct{}, 3)
		_ = p.Submit(func(context.Context) error { panic("boom") })
		for i := 0; i < 3; i++ {
			if err := p.Submit(func(context.Context) error {
				ran.Add(1)
				done <- struct{}{}
				return errors.New("ignored")
			}); err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
		for i := 0; i < 3; i++ {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("task did not run")
			}
		}
		p.Stop()
		if ran.Load() != 3 {
			t.Errorf("ran %d tasks", ran.Load())
		}
	})

	t.Run("should refuse work when the queue is full", func(t *testing.T) {
		p := NewPool(1, logging.Nop()) // not started: nothing drains the queue
		for i := 0; i < 4; i++ {
			if err := p.Submit(func(context.Context) error { return nil }); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
			t.Errorf("expected ErrQueueFull, got %v", err)
		}
	})

	t.Run("should finish queued tasks on stop", func(t *testing.T) {
		p := NewPool(1, logging.Nop())
		var ran atomic.Int32
		for i := 0; i < 3; i++ {
			_ = p.Submit(func(context.Context) error { ran.Add(1); return nil })
		}
		p.Start(context.Background())
		p.Stop()
		if ran.Load() != 3 {
			t.Errorf("expected 3 tasks to run before stop returned, got %d", ran.Load())
		}
	})

	t.Run("should drain on stop after the start context is cancelled", func(t *testing.T) {
		p := NewPool(1, logging.Nop())
		ctx, cancel := context.WithCancel(context.Background())
		p.Start(ctx)
		cancel()

		var ran atomic.Int32
		var taskErr atomic.Value
		for i := 0; i < 3; i++ {
			if err := p.Submit(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					taskErr.Store(err)
				}
				ran.Add(1)
				return nil
			}); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		p.Stop()
		if ran.Load() != 3 {
			t.Errorf("expected 3 tasks to run before stop returned, got %d", ran.Load())
		}
		if err := taskErr.Load(); err != nil {
			t.Errorf("task saw a cancelled context: %v", err)
		}
	})
}
