// Package metrics provides Prometheus metrics for the Clutch Picks backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picks_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picks_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Dashboard Metrics
	DashboardQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picks_dashboard_queries_total",
			Help: "Total dashboard queries by operation and result",
		},
		[]string{"operation", "result"}, // operation: "metrics", "performance", "activity"; result: "ok" or "error"
	)

	DashboardQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picks_dashboard_query_duration_seconds",
			Help:    "Time taken to assemble a dashboard view",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// Marketplace Metrics
	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picks_purchases_total",
			Help: "Pick purchase attempts by outcome",
		},
		[]string{"status"}, // "purchased", "not_found", "already_owned", "error"
	)

	PickCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picks_listing_cache_hits_total",
			Help: "Marketplace listing cache hit count",
		},
	)

	PickCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picks_listing_cache_misses_total",
			Help: "Marketplace listing cache miss count",
		},
	)

	// Inference Metrics
	InferenceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picks_inference_requests_total",
			Help: "Calls to the model and sentiment services",
		},
		[]string{"target", "result"}, // target: "model" or "sentiment"
	)

	InferenceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picks_inference_latency_seconds",
			Help:    "Model and sentiment service call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"target"},
	)

	SentimentCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picks_sentiment_cache_hits_total",
			Help: "Sentiment cache hit count",
		},
	)

	// Leaderboard Metrics
	LeaderboardSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picks_leaderboard_snapshots_total",
			Help: "Leaderboard snapshot runs by result",
		},
		[]string{"result"},
	)

	LeaderboardUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picks_leaderboard_users",
			Help: "Number of users in the latest leaderboard snapshot",
		},
	)
)
