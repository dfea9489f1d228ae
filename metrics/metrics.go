// Package metrics instruments the simulation loop with Prometheus
// collectors for tick timing, controller faults, and live ship counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles every metric the sim/transport packages report
// against, registered once at process startup.
type Collectors struct {
	TickDuration      prometheus.Histogram
	GasExhaustedTotal prometheus.Counter
	VMFaultTotal      *prometheus.CounterVec
	ActiveShips       prometheus.Gauge
	RadioMessageTotal prometheus.Counter
}

// NewCollectors builds and registers every collector against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "oort",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one simulation Step call.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		GasExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oort",
			Name:      "controller_gas_exhausted_total",
			Help:      "Controller ticks that trapped at runtime; every runtime trap is counted, not only gas exhaustion.",
		}),
		VMFaultTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oort",
			Name:      "controller_fault_total",
			Help:      "Controller faults by kind (compile, runtime).",
		}, []string{"kind"}),
		ActiveShips: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oort",
			Name:      "active_ships",
			Help:      "Live ships across all running simulations.",
		}),
		RadioMessageTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oort",
			Name:      "radio_messages_delivered_total",
			Help:      "Radio payloads delivered across all channels.",
		}),
	}
	reg.MustRegister(c.TickDuration, c.GasExhaustedTotal, c.VMFaultTotal, c.ActiveShips, c.RadioMessageTotal)
	return c
}
