package auth

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts *prometheus.CounterVec //nolint:gochecknoglobals
	demoEvictions prometheus.Counter     //nolint:gochecknoglobals
	metricsOnce   sync.Once              //nolint:gochecknoglobals
)

func registerMetrics() {
	metricsOnce.Do(func() {
		loginAttempts = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govcl_login_attempts_total",
				Help: "Number of audited login attempts, differentiated by mechanism and result.",
			},
			[]string{"mechanism", "result"},
		)
		demoEvictions = promauto.NewCounter(prometheus.CounterOpts{
			Name: "govcl_demo_evictions_total",
			Help: "Number of demo accounts moved to the nodemo group.",
		})
	})
}
