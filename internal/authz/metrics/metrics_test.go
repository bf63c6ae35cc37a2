package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncDecision("delete", "deny")
	m.IncPDPFailure("cerbos", "timeout")
	m.IncPDPFailure("cerbos", "timeout")
	m.SetBreakerOpen(true)
	m.IncBreakerRejection()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("delete", "deny")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PDPFailures.WithLabelValues("cerbos", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerOpen))

	m.SetBreakerOpen(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerOpen))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncDecision("read", "allow")
		m.IncMalformed("principal")
		m.IncPDPFailure("cedar", "internal")
		m.ObservePDPLatency("cedar", "ok", 0.1)
		m.SetBreakerOpen(true)
		m.IncBreakerRejection()
	})
}
