package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts hub activity.
type Metrics struct {
	Connections   prometheus.Gauge
	FramesRelayed prometheus.Counter
	FramesDropped prometheus.Counter
}

// NewMetrics registers the hub metrics on reg (the default registerer when
// nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connected_clients",
			Help: "Number of websocket clients currently connected.",
		}),
		FramesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_frames_relayed_total",
			Help: "Frames received from clients and rebroadcast.",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_frames_dropped_total",
			Help: "Frames dropped because a client send queue was full.",
		}),
	}
}
