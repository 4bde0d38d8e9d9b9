// Package metrics exposes Prometheus metrics for the insights service:
// request volume, LLM usage, and admission control outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

// factory registers metrics to our custom Registry directly
var factory = promauto.With(Registry)

// HTTPRequestsTotal tracks API requests by endpoint and status code.
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "insights",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests by endpoint and status code",
}, []string{"endpoint", "status"})

// HTTPRequestDuration tracks end-to-end request latency per endpoint.
// LLM-backed endpoints dominate the upper buckets.
var HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "insights",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency by endpoint",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
}, []string{"endpoint"})

// LLMRequestsTotal tracks upstream completion calls by model and outcome.
var LLMRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "insights",
	Name:      "llm_requests_total",
	Help:      "Total LLM completion calls by model and outcome",
}, []string{"model", "outcome"})

// LLMTokensTotal tracks reported token usage by model.
var LLMTokensTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "insights",
	Name:      "llm_tokens_total",
	Help:      "Total tokens consumed as reported by the upstream API",
}, []string{"model"})

// PromptTokensEstimated tracks the estimated size of assembled contexts.
var PromptTokensEstimated = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "insights",
	Name:      "prompt_tokens_estimated",
	Help:      "Estimated token count of assembled prompt contexts",
	Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 6000, 8000},
})

// RecordsAggregated tracks how many call records fed each aggregation.
var RecordsAggregated = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "insights",
	Name:      "records_aggregated",
	Help:      "Number of call records per aggregation run",
	Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
})

// GovernorDecisionsTotal tracks admission outcomes per decision.
var GovernorDecisionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "insights",
	Name:      "governor_decisions_total",
	Help:      "Admission control outcomes (admitted, queued, rejected)",
}, []string{"decision"})

// ChunkedFallbacksTotal counts queries that fell back to chunked analysis.
var ChunkedFallbacksTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "insights",
	Name:      "chunked_fallbacks_total",
	Help:      "Queries answered via the chunked-subset fallback",
})

// CacheHitsTotal counts chat responses served from the short-lived cache.
var CacheHitsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "insights",
	Name:      "cache_hits_total",
	Help:      "Chat responses served from the response cache",
})

// FeedClientsConnected tracks live websocket subscribers.
var FeedClientsConnected = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "insights",
	Name:      "feed_clients_connected",
	Help:      "Currently connected summary feed websocket clients",
})
