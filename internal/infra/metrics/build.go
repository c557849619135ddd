package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "act_companion_build_info",
		Help: "A constant metric with labels for version, commit and schema version.",
	},
	[]string{"version", "commit", "schema"},
)

func SetBuildInfo(version, commit string, schemaVersion int) {
	buildInfo.WithLabelValues(version, commit, strconv.Itoa(schemaVersion)).Set(1)
}
