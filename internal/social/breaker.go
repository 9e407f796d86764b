package social

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	apperrors "imtapp/internal/errors"
	"imtapp/internal/metrics"
)

// newBreaker builds a breaker that trips only on dependency failures. A
// rejected credential is a successful call from the provider's point of view.
func newBreaker(name string, rec metrics.Recorder) *gobreaker.CircuitBreaker[*Identity] {
	if rec != nil {
		rec.RecordBreakerState(name, stateValue(gobreaker.StateClosed))
	}
	return gobreaker.NewCircuitBreaker[*Identity](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsDependency(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			if rec != nil {
				rec.RecordBreakerState(name, stateValue(to))
			}
		},
	})
}

// execute runs fn through cb, reporting a rejected call as a dependency failure.
func execute(cb *gobreaker.CircuitBreaker[*Identity], dependency string, fn func() (*Identity, error)) (*Identity, error) {
	id, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.Dependency(dependency, err)
	}
	return id, err
}

func stateValue(state gobreaker.State) float64 {
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
