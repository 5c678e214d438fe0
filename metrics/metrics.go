// Package metrics holds the Prometheus collectors tokenbook exports.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcall outcomes
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeExhausted = "budget_exhausted"
	OutcomeFailed    = "failed"
	OutcomeDisagreed = "disagreed"
)

// Metrics records outcall and update activity. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	outcalls      *prometheus.CounterVec
	cyclesCharged prometheus.Counter
	updates       *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg
// gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		outcalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokenbook",
				Name:      "outcalls_total",
				Help:      "Total number of replicated outcalls by outcome.",
			},
			[]string{"outcome"},
		),
		cyclesCharged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tokenbook",
				Name:      "outcall_cycles_charged_total",
				Help:      "Total cycles charged to the outcall budget.",
			},
		),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tokenbook",
				Name:      "updates_total",
				Help:      "Total number of replicated updates by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
	}

	reg.MustRegister(m.outcalls, m.cyclesCharged, m.updates)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOutcall counts one outcall with the given outcome
func (m *Metrics) ObserveOutcall(outcome string) {
	if m == nil {
		return
	}

	m.outcalls.WithLabelValues(outcome).Inc()
}

// ObserveCycles adds charged cycles
func (m *Metrics) ObserveCycles(cycles uint64) {
	if m == nil {
		return
	}

	m.cyclesCharged.Add(float64(cycles))
}

// ObserveUpdate counts one update
func (m *Metrics) ObserveUpdate(command string, outcome string) {
	if m == nil {
		return
	}

	m.updates.WithLabelValues(command, outcome).Inc()
}

// OutcallCounter exposes the outcall counter for an outcome
func (m *Metrics) OutcallCounter(outcome string) prometheus.Counter {
	return m.outcalls.WithLabelValues(outcome)
}

// CyclesCounter exposes the charged cycles counter
func (m *Metrics) CyclesCounter() prometheus.Counter {
	return m.cyclesCharged
}

// UpdateCounter exposes the update counter for a command and outcome
func (m *Metrics) UpdateCounter(command string, outcome string) prometheus.Counter {
	return m.updates.WithLabelValues(command, outcome)
}
