package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when a call is rejected by an open breaker
var ErrCircuitOpen = errors.New("circuit breaker open")

// Settings configures a CircuitBreaker
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// CircuitBreaker wraps gobreaker with metrics and a fallback
type CircuitBreaker struct {
	cb       *gobreaker.CircuitBreaker
	fallback FallbackFunc
	metrics  *breakerMetrics
}

// NewCircuitBreaker builds a breaker from settings. A nil fallback rejects
// with ErrCircuitOpen.
func NewCircuitBreaker(settings Settings, fallback FallbackFunc) *CircuitBreaker {
	if settings.Name == "" {
		settings.Name = "default"
	}
	if fallback == nil {
		fallback = RejectFallback
	}
	metrics := newBreakerMetrics(settings.Name)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.transition(to)
		},
	})
	metrics.setState(gobreaker.StateClosed)

	return &CircuitBreaker{cb: cb, fallback: fallback, metrics: metrics}
}

// Name returns the breaker name
func (b *CircuitBreaker) Name() string {
	return b.cb.Name()
}

// State returns the current breaker state
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Execute runs op through the breaker, invoking the fallback when the breaker
// rejects the call
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return op(ctx)
	})
	switch {
	case err == nil:
		b.metrics.success.Inc()
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.metrics.rejected.Inc()
		return b.fallback(ctx, err)
	default:
		b.metrics.failure.Inc()
		return nil, err
	}
}
