package venue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "venue",
	Name:      "reconnects_total",
	Help:      "Successful reconnect cycles per venue",
}, []string{"venue"})

var parseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "arbengine",
	Subsystem: "venue",
	Name:      "parse_errors_total",
	Help:      "Inbound frames dropped because they failed to decode",
}, []string{"venue"})

// connectionState exports the transport state machine: 0 disconnected,
// 1 connecting, 2 connected, 3 reconnecting.
var connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "arbengine",
	Subsystem: "venue",
	Name:      "connection_state",
	Help:      "Transport state per venue (0=disconnected 1=connecting 2=connected 3=reconnecting)",
}, []string{"venue"})
