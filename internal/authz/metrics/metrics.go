// Package metrics holds Prometheus instruments for the authorization pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	MalformedRequests *prometheus.CounterVec
	PDPFailures       *prometheus.CounterVec
	PDPLatency        *prometheus.HistogramVec
	BreakerOpen       prometheus.Gauge
	BreakerRejections prometheus.Counter
}

// New registers the authorization metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postgate_authz_decisions_total",
			Help: "Authorization verdicts by action and verdict",
		}, []string{"action", "verdict"}),
		MalformedRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postgate_authz_malformed_requests_total",
			Help: "Decision requests rejected before reaching the PDP",
		}, []string{"reason"}),
		PDPFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postgate_pdp_failures_total",
			Help: "PDP calls that failed and were converted to deny, by failure kind",
		}, []string{"backend", "kind"}),
		PDPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postgate_pdp_request_duration_seconds",
			Help:    "Latency of individual PDP attempts",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"backend", "outcome"}),
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "postgate_pdp_circuit_open",
			Help: "1 while the PDP circuit breaker is open",
		}),
		BreakerRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "postgate_pdp_circuit_rejections_total",
			Help: "Checks denied without a remote call because the breaker was open",
		}),
	}
}

func (m *Metrics) IncDecision(action, verdict string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(action, verdict).Inc()
}

func (m *Metrics) IncMalformed(reason string) {
	if m == nil {
		return
	}
	m.MalformedRequests.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncPDPFailure(backend, kind string) {
	if m == nil {
		return
	}
	m.PDPFailures.WithLabelValues(backend, kind).Inc()
}

func (m *Metrics) ObservePDPLatency(backend, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.PDPLatency.WithLabelValues(backend, outcome).Observe(seconds)
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) IncBreakerRejection() {
	if m == nil {
		return
	}
	m.BreakerRejections.Inc()
}
