package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	// buildInfo is a constant 1 gauge labelled with version and environment.
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Banking portal build information.",
		},
		[]string{"app", "version", "env"},
	)
)

// InitBuildInfo registers build_info once and publishes the running version.
func InitBuildInfo(app, version, env string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.WithLabelValues(app, version, env).Set(1)
}
