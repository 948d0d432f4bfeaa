// Package metrics exposes Prometheus counters for the engine's operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
)

// JobName is the push-gateway job the counters are pushed under.
const JobName = "webrpg_engine"

// Metrics holds the engine counters on a private registry. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	evaluations *prometheus.CounterVec
	sheets      prometheus.Counter
	messages    *prometheus.CounterVec
}

// New creates the counters and registers them, together with the Go runtime
// collector, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webrpg_formula_evaluations_total",
				Help: "Total number of formula evaluations",
			},
			[]string{"result"},
		),
		sheets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "webrpg_sheets_computed_total",
				Help: "Total number of character sheets computed",
			},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webrpg_chat_messages_total",
				Help: "Total number of chat messages formatted",
			},
			[]string{"mode"},
		),
	}

	m.registry.MustRegister(
		m.evaluations,
		m.sheets,
		m.messages,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveEvaluation counts one formula evaluation by outcome.
func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.evaluations.WithLabelValues(result).Inc()
}

// ObserveSheet counts one computed sheet.
func (m *Metrics) ObserveSheet() {
	if m == nil {
		return
	}
	m.sheets.Inc()
}

// ObserveMessage counts one formatted chat message.
func (m *Metrics) ObserveMessage(mode chat.Mode) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(string(mode)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push sends the current counters to the push gateway at url.
func (m *Metrics) Push(url string) error {
	return push.New(url, JobName).Gatherer(m.registry).Push()
}

// Gatherer returns the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
