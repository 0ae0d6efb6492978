// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shelfwise/internal/metrics"
	"github.com/tomtom215/shelfwise/internal/models"
)

// BreakerSettings configures a BreakerProvider.
type BreakerSettings struct {
	// Name labels the breaker in logs and metrics.
	Name string

	// MaxHalfOpenRequests is how many trial calls pass while half-open.
	MaxHalfOpenRequests uint32

	// Interval resets the closed-state counts. Zero never resets.
	Interval time.Duration

	// Timeout is how long the circuit stays open before a trial call.
	Timeout time.Duration

	// MinRequests and FailureRatio decide when to open: at least
	// MinRequests calls with a failure ratio at or above FailureRatio.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings returns the settings used for public catalogs:
// open after a 60% failure rate over at least 10 requests, retry after 2 minutes.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:                name,
		MaxHalfOpenRequests: 3,
		Interval:            time.Minute,
		Timeout:             2 * time.Minute,
		MinRequests:         10,
		FailureRatio:        0.6,
	}
}

// BreakerProvider wraps a Provider with circuit breaker protection.
// The breaker prevents hammering a provider that is down or slow; while it
// is open, calls fail fast with ErrProviderUnavailable.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout. Tests should drive it by request counts, not by waiting.
type BreakerProvider struct {
	next   Provider
	cb     *gobreaker.CircuitBreaker[[]models.SearchResult]
	name   string
	logger zerolog.Logger
}

// NewBreakerProvider wraps next with a circuit breaker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerProvider(next Provider, s BreakerSettings, logger zerolog.Logger) *BreakerProvider {
	b := &BreakerProvider{
		next:   next,
		name:   s.Name,
		logger: logger.With().Str("component", "search_breaker").Str("breaker", s.Name).Logger(),
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker[[]models.SearchResult](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxHalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				b.logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			b.logger.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		// A caller giving up is not the provider's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return b
}

// Search calls the wrapped provider unless the circuit is open.
func (b *BreakerProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	results, err := b.cb.Execute(func() ([]models.SearchResult, error) {
		return b.next.Search(ctx, query, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, b.name, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return results, nil
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *BreakerProvider) State() string {
	return stateToString(b.cb.State())
}

// stateToFloat converts circuit breaker state to numeric value for metrics
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

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
