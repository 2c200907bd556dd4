package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Breaker state: 0 closed, 1 half-open, 2 open",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_calls_total",
		Help: "Calls made through a breaker by outcome",
	}, []string{"breaker", "outcome"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_state_changes_total",
		Help: "Breaker state transitions",
	}, []string{"breaker", "to"})
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

// breakerMetrics holds the series of one named breaker
type breakerMetrics struct {
	state    prometheus.Gauge
	success  prometheus.Counter
	failure  prometheus.Counter
	rejected prometheus.Counter
	name     string
}

func newBreakerMetrics(name string) *breakerMetrics {
	return &breakerMetrics{
		name:     name,
		state:    breakerState.WithLabelValues(name),
		success:  breakerCalls.WithLabelValues(name, outcomeSuccess),
		failure:  breakerCalls.WithLabelValues(name, outcomeFailure),
		rejected: breakerCalls.WithLabelValues(name, outcomeRejected),
	}
}

func (m *breakerMetrics) setState(state gobreaker.State) {
	switch state {
	case gobreaker.StateClosed:
		m.state.Set(0)
	case gobreaker.StateHalfOpen:
		m.state.Set(1)
	case gobreaker.StateOpen:
		m.state.Set(2)
	}
}

func (m *breakerMetrics) transition(to gobreaker.State) {
	breakerTransitions.WithLabelValues(m.name, to.String()).Inc()
	m.setState(to)
}
