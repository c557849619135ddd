package metrics

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/infra/logging"
)

func init() { register(flowEventsTotal, transitionsDeniedTotal, sessionsExpiredTotal, activeControllers) }

var (
	flowEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_events_total",
			Help: "Flow controller actions by event name.",
		},
		[]string{"event"},
	)

	transitionsDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_transitions_denied_total",
			Help: "Stage transitions refused by the guard, by target and reason.",
		},
		[]string{"target", "reason"},
	)

	sessionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_expired_total",
			Help: "Sessions replaced by the sweeper after their expiry passed.",
		},
	)

	activeControllers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flow_controllers_active",
			Help: "Per-user flow controllers currently held in memory.",
		},
	)
)

func IncSessionsExpired(n int) {
	sessionsExpiredTotal.Add(float64(n))
}

func SetActiveControllers(n int) {
	activeControllers.Set(float64(n))
}

func IncTransitionDenied(target, reason string) {
	transitionsDeniedTotal.WithLabelValues(norm(target), norm(reason)).Inc()
}

var _ adapter.Telemetry = (*Telemetry)(nil)

// Telemetry counts controller events and writes one structured log line per event.
type Telemetry struct {
	log *zerolog.Logger
}

func NewTelemetry(logger *zerolog.Logger) *Telemetry {
	l := logger.With().Str("component", "Telemetry").Logger()
	return &Telemetry{log: &l}
}

func (t *Telemetry) Track(ctx context.Context, ev adapter.Event) {
	flowEventsTotal.WithLabelValues(norm(ev.Name)).Inc()

	l := logging.With(ctx, t.log)
	e := l.Info().
		Str("event_id", ulid.Make().String()).
		Str("event", ev.Name).
		Str("session_id", ev.SessionID)
	if len(ev.Props) > 0 {
		e = e.Fields(ev.Props)
	}
	e.Msg("flow_event")
}
