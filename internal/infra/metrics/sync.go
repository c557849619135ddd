package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(syncOpsTotal) }

var syncOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cloud_sync_ops_total",
		Help: "Cloud sync operations by backend, operation and result.",
	},
	[]string{"backend", "op", "result"},
)

func IncSync(backend, op, result string) {
	syncOpsTotal.WithLabelValues(norm(backend), norm(op), norm(result)).Inc()
}
