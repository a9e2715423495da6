package spread

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// calculationLatency times one spread-calculator evaluation.
var calculationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "arbengine",
	Subsystem: "spread",
	Name:      "calculation_latency_ms",
	Help:      "Time to calculate one directional spread in milliseconds",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
})

// opportunitiesEmitted counts opportunities successfully try-sent onto the
// bounded channel.
var opportunitiesEmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "spread",
	Name:      "opportunities_emitted_total",
	Help:      "Total spread opportunities sent to the executor",
})

// opportunitiesDropped counts try-sends that found the channel full: the
// executor was busy, and a stale opportunity is worth less than the next
// fresh one.
var opportunitiesDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "spread",
	Name:      "opportunities_dropped_total",
	Help:      "Opportunities dropped because the channel to the executor was full",
})

// missingBookTicks counts poll ticks where one or both venues had no book
// yet (e.g. during startup or a stale/reconnecting venue).
var missingBookTicks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "spread",
	Name:      "missing_book_ticks_total",
	Help:      "Poll ticks skipped because one or both venue books were unavailable",
})
