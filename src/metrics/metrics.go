package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the counters of one batch run, kept on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	chainsBuilt    *prometheus.CounterVec
	tickersPruned  *prometheus.CounterVec
	marketsSkipped *prometheus.CounterVec
	eventsResolved *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chainsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omega_chains_built_total",
				Help: "Total number of chains built",
			},
			[]string{"stem", "kind", "status"},
		),
		tickersPruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omega_tickers_pruned_total",
				Help: "Total number of tickers dropped from a chain for missing or short data",
			},
			[]string{"stem"},
		),
		marketsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omega_markets_skipped_total",
				Help: "Total number of markets skipped by a batch command",
			},
			[]string{"command"},
		),
		eventsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omega_events_resolved_total",
				Help: "Total number of calendar events resolved",
			},
			[]string{"kind"},
		),
	}

	m.registry.MustRegister(m.chainsBuilt, m.tickersPruned, m.marketsSkipped, m.eventsResolved)
	return m
}

func (m *Metrics) ChainBuilt(stem, kind, status string) {
	m.chainsBuilt.WithLabelValues(stem, kind, status).Inc()
}

func (m *Metrics) TickersPruned(stem string, n int) {
	m.tickersPruned.WithLabelValues(stem).Add(float64(n))
}

func (m *Metrics) MarketsSkipped(command string, n int) {
	m.marketsSkipped.WithLabelValues(command).Add(float64(n))
}

func (m *Metrics) EventsResolved(kind string, n int) {
	m.eventsResolved.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the counters in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("WriteTextfile: %w", err)
	}

	return nil
}
