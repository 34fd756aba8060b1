package lookup

import (
	"errors"
	"time"

	"iptrack/internal/metrics"
	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

// breaker guards one third-party API. It opens after 5 consecutive
// failures, or a 60% failure rate over at least 10 requests, and probes
// again after 30 seconds.
type breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

func newBreaker[T any](name string, log logger.Logger) *breaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// An unknown country is the caller's mistake, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrCountryNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state change", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &breaker[T]{name: name, cb: cb}
}

// call runs fn through the breaker and records the outcome.
func (b *breaker[T]) call(fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := b.cb.Execute(fn)

	switch {
	case err == nil:
		metrics.ObserveLookup(b.name, "success", time.Since(start))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ObserveLookup(b.name, "rejected", time.Since(start))
		err = apperrors.Wrap(apperrors.ErrLookupUnavailable, b.name+": "+err.Error())
	default:
		metrics.ObserveLookup(b.name, "failure", time.Since(start))
	}
	return result, err
}

func (b *breaker[T]) state() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
