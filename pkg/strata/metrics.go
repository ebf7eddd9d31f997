package strata

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the runtime collectors
type Metrics struct {
	postedTotal     *prometheus.CounterVec
	startupSeconds  prometheus.Histogram
	startupFailures prometheus.Counter
}

// NewMetrics registers the runtime collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		postedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strata",
			Subsystem: "executor",
			Name:      "posted_total",
			Help:      "Work items posted to named executors by outcome",
		}, []string{"executor", "outcome"}),
		startupSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "strata",
			Subsystem: "startup",
			Name:      "duration_seconds",
			Help:      "Time from Controllers.Start until every singleton recorded a result",
			Buckets:   prometheus.DefBuckets,
		}),
		startupFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "strata",
			Subsystem: "startup",
			Name:      "failures_total",
			Help:      "Singleton constructions that recorded a failure",
		}),
	}
}

func (m *Metrics) posted(executor string, err error) {
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	m.postedTotal.WithLabelValues(executor, outcome).Inc()
}

func (m *Metrics) observeStartup(elapsed time.Duration, results []Outcome) {
	m.startupSeconds.Observe(elapsed.Seconds())
	for _, r := range results {
		if !r.Ok() {
			m.startupFailures.Inc()
		}
	}
}
