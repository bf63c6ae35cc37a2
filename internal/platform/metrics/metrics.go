package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginFailures   prometheus.Counter
	TokensRevoked   prometheus.Counter
	PostOperations  *prometheus.CounterVec
}

// New creates and registers application metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "postgate_users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "postgate_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		TokensRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "postgate_tokens_revoked_total",
			Help: "Total number of access tokens revoked by logout",
		}),
		PostOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postgate_post_operations_total",
			Help: "Completed post operations by operation",
		}, []string{"operation"}),
	}
}

// IncrementUsersRegistered increments the registered users counter by 1
func (m *Metrics) IncrementUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	if m == nil {
		return
	}
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementTokensRevoked() {
	if m == nil {
		return
	}
	m.TokensRevoked.Inc()
}

// IncrementPostOperation counts a completed create/read/list/update/delete.
func (m *Metrics) IncrementPostOperation(operation string) {
	if m == nil {
		return
	}
	m.PostOperations.WithLabelValues(operation).Inc()
}
