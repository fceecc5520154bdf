package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AggregationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_requests_total",
			Help: "Total number of aggregation requests by outcome (count)",
		},
		[]string{"status"},
	)

	AggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_ms",
			Help:    "End-to-end aggregation duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	DependencyCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dependency_call_duration_ms",
			Help:    "Primary dependency call duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"dependency", "outcome"},
	)

	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dependency_fallbacks_total",
			Help: "Fallback resolutions by dependency and kind (count)",
		},
		[]string{"dependency", "kind"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dependency_retry_attempts_total",
			Help: "Retry attempts by dependency and outcome (count)",
		},
		[]string{"dependency", "outcome"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejections_total",
			Help: "Calls rejected by an open circuit breaker (count)",
		},
		[]string{"name"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Side-channel events published by topic and status (count)",
		},
		[]string{"topic", "status"},
	)
)

func RegisterAggregationMetrics() {
	prometheus.MustRegister(
		AggregationRequestsTotal,
		AggregationDuration,
		DependencyCallDuration,
		FallbacksTotal,
		RetryAttemptsTotal,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(
		CircuitBreakerState,
		CircuitBreakerRejections,
	)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(EventsPublishedTotal)
}
