package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storageOpsTotal) }

var storageOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "session_storage_ops_total",
		Help: "Local session storage operations by record, operation and outcome.",
	},
	[]string{"record", "op", "result"}, // e.g., record="session", op="load", result="migrated"
)

func IncStorageOp(record, op, result string) {
	storageOpsTotal.WithLabelValues(norm(record), norm(op), norm(result)).Inc()
}
