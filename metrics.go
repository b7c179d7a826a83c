package packrattle

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics bundles the Prometheus collectors a single Engine
// invocation reports to, one vector of each keyed by run id so
// several concurrent invocations against the same registry stay
// distinguishable.
type engineMetrics struct {
	dequeues          *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	waitersNotified   *prometheus.CounterVec
	queueDepthAtDrain *prometheus.HistogramVec
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	m := &engineMetrics{
		dequeues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packrattle",
			Name:      "dequeues_total",
			Help:      "Work-queue entries processed by the trampoline.",
		}, []string{"run_id"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packrattle",
			Name:      "cache_hits_total",
			Help:      "Schedules served from an existing cache entry.",
		}, []string{"run_id"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packrattle",
			Name:      "cache_misses_total",
			Help:      "Schedules that created a new cache entry.",
		}, []string{"run_id"}),
		waitersNotified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packrattle",
			Name:      "waiters_notified_total",
			Help:      "Handler invocations fanned out from a cache entry.",
		}, []string{"run_id"}),
		queueDepthAtDrain: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "packrattle",
			Name:      "queue_depth_at_drain",
			Help:      "Work-queue length observed each time it is drained to empty.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"run_id"}),
	}
	if reg != nil {
		// A later Engine on the same registry reuses the collectors the
		// first one registered, instead of failing on duplicates.
		register := func(c prometheus.Collector) prometheus.Collector {
			if err := reg.Register(c); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					return are.ExistingCollector
				}
				panic(err)
			}
			return c
		}
		m.dequeues = register(m.dequeues).(*prometheus.CounterVec)
		m.cacheHits = register(m.cacheHits).(*prometheus.CounterVec)
		m.cacheMisses = register(m.cacheMisses).(*prometheus.CounterVec)
		m.waitersNotified = register(m.waitersNotified).(*prometheus.CounterVec)
		m.queueDepthAtDrain = register(m.queueDepthAtDrain).(*prometheus.HistogramVec)
	}
	return m
}
