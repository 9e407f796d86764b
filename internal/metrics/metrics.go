// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordAuth(provider, outcome string)
	RecordUpload(tagCount int)
	RecordSearch(results int)
	RecordUsageEvent(outcome string)
	RecordBreakerState(name string, state float64)
}

// Collector implements Recorder with Prometheus metrics.
type Collector struct {
	authAttempts  *prometheus.CounterVec
	uploads       prometheus.Counter
	uploadTags    prometheus.Histogram
	searches      prometheus.Counter
	searchResults prometheus.Histogram
	usageEvents   *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imt_auth_attempts_total",
			Help: "Authentication attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imt_images_uploaded_total",
			Help: "Images stored and catalogued.",
		}),
		uploadTags: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imt_image_tags_per_upload",
			Help:    "Tags attached per uploaded image.",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imt_searches_total",
			Help: "Tag searches served.",
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imt_search_page_size",
			Help:    "Images returned per search page.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		usageEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imt_usage_events_total",
			Help: "Usage events by outcome.",
		}, []string{"outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "imt_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.uploads,
		c.uploadTags,
		c.searches,
		c.searchResults,
		c.usageEvents,
		c.breakerState,
	)

	return c
}

// RecordAuth counts one authentication attempt.
func (c *Collector) RecordAuth(provider, outcome string) {
	c.authAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordUpload counts an upload and its tag count.
func (c *Collector) RecordUpload(tagCount int) {
	c.uploads.Inc()
	c.uploadTags.Observe(float64(tagCount))
}

// RecordSearch counts a search and the size of the returned page.
func (c *Collector) RecordSearch(results int) {
	c.searches.Inc()
	c.searchResults.Observe(float64(results))
}

// RecordUsageEvent counts a usage event write.
func (c *Collector) RecordUsageEvent(outcome string) {
	c.usageEvents.WithLabelValues(outcome).Inc()
}

// RecordBreakerState publishes a breaker state.
func (c *Collector) RecordBreakerState(name string, state float64) {
	c.breakerState.WithLabelValues(name).Set(state)
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
