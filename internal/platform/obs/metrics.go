package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facility",
		Subsystem: "ops",
		Name:      "duration_seconds",
		Help:      "Duration of timed internal operations",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"op", "outcome"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facility",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Requests sent to external geodata and routing services",
	}, []string{"service", "outcome"})

	SearchAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facility",
		Subsystem: "search",
		Name:      "attempts",
		Help:      "Radius expansion attempts issued per search",
		Buckets:   []float64{1, 2, 3, 4, 5, 6, 8},
	})

	EmptySearches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facility",
		Subsystem: "search",
		Name:      "empty_total",
		Help:      "Searches that exhausted all attempts without results",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facility",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by cache name and result",
	}, []string{"cache", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facility",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facility",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})
)
