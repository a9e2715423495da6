package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var entryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "arbengine",
	Subsystem: "executor",
	Name:      "entry_latency_ms",
	Help:      "End-to-end time from open-flag CAS to both leg responses",
	Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2000},
})

var legOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "executor",
	Name:      "leg_outcomes_total",
	Help:      "Per-venue leg outcomes during entry attempts",
}, []string{"venue", "outcome"})

var autoCloseFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "executor",
	Name:      "auto_close_failures_total",
	Help:      "Auto-close attempts that exhausted retries and left directional exposure",
})

var positionOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "arbengine",
	Subsystem: "executor",
	Name:      "position_open",
	Help:      "1 while a delta-neutral position is held, else 0",
})
