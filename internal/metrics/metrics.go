// Shelfwise - Personal Library Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfwise_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfwise_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_recommendation_requests_total",
			Help: "Total recommendation requests by entry point and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "personalized", "fallback", "cached", "empty"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfwise_recommendation_duration_seconds",
			Help:    "End-to-end duration of recommendation requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_recommendation_fallbacks_total",
			Help: "Requests served from the popularity fallback",
		},
		[]string{"reason"}, // "new_reader", "library_error", "pipeline_failure"
	)

	RecommendationCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_recommendation_candidates_total",
			Help: "Candidates that survived filtering, by strategy",
		},
		[]string{"strategy"},
	)

	// Search Provider Metrics
	SearchQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfwise_search_query_duration_seconds",
			Help:    "Duration of search provider queries issued by the recommender",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	SearchQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_search_query_errors_total",
			Help: "Failed search provider queries",
		},
		[]string{"strategy", "error_type"}, // error_type: "timeout", "canceled", "error"
	)

	SearchProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_search_provider_requests_total",
			Help: "HTTP requests made to search providers",
		},
		[]string{"provider", "status"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)

	// Library Store Metrics
	LibraryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_library_operations_total",
			Help: "Library store operations by backend, operation and result",
		},
		[]string{"backend", "operation", "result"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_events_published_total",
			Help: "Events published to the message bus",
		},
		[]string{"topic", "result"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfwise_events_consumed_total",
			Help: "Events handled from the message bus",
		},
		[]string{"topic", "result"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records one served recommendation request.
func RecordRecommendation(endpoint, outcome string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(endpoint, outcome).Inc()
	RecommendationDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordFallback counts a request answered by the popularity fallback.
func RecordFallback(reason string) {
	RecommendationFallbacks.WithLabelValues(reason).Inc()
}

// ObserveSearchQuery records the latency and outcome of one provider query.
func ObserveSearchQuery(strategy string, duration time.Duration, err error) {
	SearchQueryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if err != nil {
		SearchQueryErrors.WithLabelValues(strategy, errorType(err)).Inc()
	}
}

// RecordProviderRequest counts an outbound HTTP request to a search provider.
func RecordProviderRequest(provider, status string) {
	SearchProviderRequests.WithLabelValues(provider, status).Inc()
}

// RecordCacheLookup counts a hit or miss for the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordLibraryOperation counts a library store operation.
func RecordLibraryOperation(backend, operation string, err error) {
	LibraryOperations.WithLabelValues(backend, operation, result(err)).Inc()
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, result(err)).Inc()
}

// RecordEventConsumed counts a handled event.
func RecordEventConsumed(topic string, err error) {
	EventsConsumed.WithLabelValues(topic, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
