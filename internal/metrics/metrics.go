package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event pipeline and cache invalidation metrics.
var (
	HookDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collections",
			Name:      "hook_dispatch_total",
			Help:      "Total number of hook dispatches",
		},
		[]string{"event", "kind"}, // kind: "filter" / "action"
	)

	HookDispatchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collections",
			Name:      "hook_dispatch_errors_total",
			Help:      "Total number of hook dispatches aborted by a failing handler",
		},
		[]string{"event"},
	)

	HookDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "collections",
			Name:      "hook_dispatch_duration_seconds",
			Help:      "Hook dispatch duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"event"},
	)

	CacheTagInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "collections",
			Name:      "cache_tag_invalidations_total",
			Help:      "Total number of cache tags invalidated",
		},
		[]string{"kind"}, // "entity" / "table" / "permissions"
	)
)

// Collectors returns every collector of this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HookDispatchTotal,
		HookDispatchErrorsTotal,
		HookDispatchDuration,
		CacheTagInvalidationsTotal,
	}
}

// Register registers the collectors with reg. Collectors that are already
// registered are skipped so Register can be called more than once.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveDispatch records one dispatch of event.
func ObserveDispatch(event, kind string, started time.Time, err error) {
	HookDispatchTotal.WithLabelValues(event, kind).Inc()
	HookDispatchDuration.WithLabelValues(event).Observe(time.Since(started).Seconds())
	if err != nil {
		HookDispatchErrorsTotal.WithLabelValues(event).Inc()
	}
}

// ObserveInvalidation records n invalidated tags of the given kind.
func ObserveInvalidation(kind string, n int) {
	CacheTagInvalidationsTotal.WithLabelValues(kind).Add(float64(n))
}
