// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records prometheus metrics for the research pipeline.
type Collector struct {
	// Search
	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec

	// Fetch
	fetchesTotal      *prometheus.CounterVec
	fetchDuration     *prometheus.HistogramVec
	fetchRetriesTotal prometheus.Counter

	// Gather
	gatherTotal    *prometheus.CounterVec
	gatherDuration prometheus.Histogram
	gatherAccepted prometheus.Histogram

	// Pipeline
	stageDuration *prometheus.HistogramVec

	// Cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the pipeline metrics on reg. A nil reg uses
// the default registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.searchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of web searches issued",
		},
		[]string{"provider", "status"},
	)

	c.searchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Web search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	c.fetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of page fetches by final status",
		},
		[]string{"status"}, // success, failed, cancelled
	)

	c.fetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Page fetch duration in seconds, retries included",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	c.fetchRetriesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Total number of fetch retry attempts",
		},
	)

	c.gatherTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gather_total",
			Help:      "Total number of gathering calls by outcome condition",
		},
		[]string{"condition"},
	)

	c.gatherDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gather_duration_seconds",
			Help:      "End-to-end gathering duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	c.gatherAccepted = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gather_accepted_results",
			Help:      "Number of accepted results per gathering call",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
	)

	c.stageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordSearch records one search call to a provider.
func (c *Collector) RecordSearch(provider, status string, duration time.Duration) {
	c.searchesTotal.WithLabelValues(provider, status).Inc()
	c.searchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordFetch records the final status of a page fetch.
func (c *Collector) RecordFetch(status string, duration time.Duration) {
	c.fetchesTotal.WithLabelValues(status).Inc()
	c.fetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFetchRetry records one additional fetch attempt.
func (c *Collector) RecordFetchRetry() {
	c.fetchRetriesTotal.Inc()
}

// RecordGather records a completed gathering call.
func (c *Collector) RecordGather(condition string, accepted int, duration time.Duration) {
	c.gatherTotal.WithLabelValues(condition).Inc()
	c.gatherDuration.Observe(duration.Seconds())
	c.gatherAccepted.Observe(float64(accepted))
}

// RecordStage records a pipeline stage duration.
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
