package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/infra/metrics"
	"act-companion/internal/usecase"
)

// ExpiryWorker periodically replaces expired sessions and drops idle
// controllers from memory.
type ExpiryWorker struct {
	interval time.Duration
	idle     time.Duration
	reg      *usecase.Registry
	now      func() time.Time
	log      *zerolog.Logger
}

func NewExpiryWorker(interval, idle time.Duration, reg *usecase.Registry, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		idle:     idle,
		reg:      reg,
		now:      time.Now,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many sessions expired and how many
// controllers were evicted.
func (w *ExpiryWorker) Sweep(ctx context.Context) (expired, evicted int) {
	w.reg.Each(func(c *usecase.FlowController) {
		if c.ExpireIfDue(ctx) {
			expired++
		}
	})
	if w.idle > 0 {
		evicted = w.reg.Evict(w.now(), w.idle)
	}
	if expired > 0 {
		metrics.IncSessionsExpired(expired)
		w.log.Info().Int("count", expired).Msg("expired sessions replaced")
	}
	if evicted > 0 {
		w.log.Debug().Int("count", evicted).Msg("idle controllers evicted")
	}
	metrics.SetActiveControllers(w.reg.Len())
	return expired, evicted
}
