// Package metrics exposes Prometheus instrumentation for the tracker and
// its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/variety-jones/cptracker/pkg/tracker"
)

const kNamespace = "cptracker"

// Collector records tracker and HTTP metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	scrapeDuration *prometheus.HistogramVec
	scrapeErrors   *prometheus.CounterVec
	batchItems     *prometheus.CounterVec
	trackedUsers   prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewCollector creates a collector with a fresh registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	return &Collector{
		registry: reg,
		scrapeDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: kNamespace,
			Subsystem: "scraper",
			Name:      "duration_seconds",
			Help:      "Latency of profile scrapes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
		scrapeErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: kNamespace,
			Subsystem: "scraper",
			Name:      "errors_total",
			Help:      "Number of failed profile scrapes.",
		}, []string{"platform"}),
		batchItems: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: kNamespace,
			Subsystem: "tracker",
			Name:      "items_total",
			Help:      "Processed usernames by mode and outcome.",
		}, []string{"mode", "outcome"}),
		trackedUsers: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: kNamespace,
			Subsystem: "tracker",
			Name:      "users",
			Help:      "Number of tracked users seen by the last refresh.",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: kNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: kNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveScrape implements tracker.Observer.
func (c *Collector) ObserveScrape(platform string, took time.Duration, err error) {
	c.scrapeDuration.WithLabelValues(platform).Observe(took.Seconds())
	if err != nil {
		c.scrapeErrors.WithLabelValues(platform).Inc()
	}
}

// ObserveOutcome implements tracker.Observer.
func (c *Collector) ObserveOutcome(mode tracker.Mode, outcome tracker.Outcome) {
	c.batchItems.WithLabelValues(string(mode), string(outcome)).Inc()
}

// ObserveTrackedUsers implements tracker.Observer.
func (c *Collector) ObserveTrackedUsers(n int) {
	c.trackedUsers.Set(float64(n))
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, took time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ tracker.Observer = (*Collector)(nil)
