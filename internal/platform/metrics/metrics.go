package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the gateway. Constructed once in
// main and injected; promauto registers against the default registry.
type Metrics struct {
	SignInAttempts  *prometheus.CounterVec
	SignUps         prometheus.Counter
	GateDecisions   *prometheus.CounterVec
	GateReadyWaitMs prometheus.Histogram
	RoleMutations   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SignInAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ashram_sign_in_attempts_total",
			Help: "Sign-in attempts by outcome (success, failure)",
		}, []string{"outcome"}),
		SignUps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ashram_sign_ups_total",
			Help: "Total registrations accepted",
		}),
		GateDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ashram_gate_decisions_total",
			Help: "Authorization gate decisions by outcome",
		}, []string{"outcome"}),
		GateReadyWaitMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ashram_gate_ready_wait_ms",
			Help:    "Time the gate spent waiting for auth sources to become ready, in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		RoleMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ashram_role_mutations_total",
			Help: "Role assignment mutations by action (assign, remove) and outcome",
		}, []string{"action", "outcome"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ashram_active_sessions",
			Help: "Sessions currently tracked by the session store",
		}),
	}
}

// ObserveSignIn records a sign-in attempt outcome.
func (m *Metrics) ObserveSignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignInAttempts.WithLabelValues(outcome).Inc()
}

// ObserveSignUp records an accepted registration.
func (m *Metrics) ObserveSignUp() {
	if m == nil {
		return
	}
	m.SignUps.Inc()
}

// ObserveActiveSessions adjusts the active-session gauge by delta.
func (m *Metrics) ObserveActiveSessions(delta float64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(delta)
}

// ObserveGateDecision records a gate outcome.
func (m *Metrics) ObserveGateDecision(outcome string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(outcome).Inc()
}

// ObserveGateReadyWait records how long the gate waited for readiness.
func (m *Metrics) ObserveGateReadyWait(ms float64) {
	if m == nil {
		return
	}
	m.GateReadyWaitMs.Observe(ms)
}

// ObserveRoleMutation records an assign/remove outcome.
func (m *Metrics) ObserveRoleMutation(action, outcome string) {
	if m == nil {
		return
	}
	m.RoleMutations.WithLabelValues(action, outcome).Inc()
}
