// Package metrics exposes Prometheus counters for the watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the watcher's Prometheus collectors behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	PollCycles       prometheus.Counter
	PollErrors       prometheus.Counter
	EligibleSessions prometheus.Counter
	Dispatches       *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slotwatch_poll_cycles_total",
			Help: "Completed poll cycles, including cycles that found nothing.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slotwatch_poll_errors_total",
			Help: "Poll cycles skipped due to provider fetch or parse errors.",
		}),
		EligibleSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slotwatch_eligible_sessions_total",
			Help: "Session records that passed the eligibility filter.",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotwatch_dispatches_total",
			Help: "Alert delivery attempts by channel and outcome.",
		}, []string{"channel", "status"}),
	}

	reg.MustRegister(m.PollCycles, m.PollErrors, m.EligibleSessions, m.Dispatches)
	return m
}

// Handler returns the HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
