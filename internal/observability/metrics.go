package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "urbanpulse"

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	// Third-party provider calls.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error,empty}
	ProviderDuration *prometheus.HistogramVec // labels: provider

	// Cache lookups.
	CacheLookups *prometheus.CounterVec // labels: cache={geocode,weather,air_quality,news,places}, result={hit,miss}

	// Location resolution and fallback policy.
	LocationResolutions *prometheus.CounterVec // labels: source={device,ip,search,fallback}
	FallbacksServed     *prometheus.CounterVec // labels: section={weather,air_quality,news,places}

	IncidentEvents *prometheus.CounterVec // labels: type, outcome={published,error}

	HTTPRequests *prometheus.CounterVec   // labels: route, status
	HTTPDuration *prometheus.HistogramVec // labels: route

	DiscoveryResults prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.CacheLookups,
		m.LocationResolutions,
		m.FallbacksServed,
		m.IncidentEvents,
		m.HTTPRequests,
		m.HTTPDuration,
		m.DiscoveryResults,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Third-party provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Third-party provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		LocationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_resolutions_total",
			Help:      "Resolved user locations by source.",
		}, []string{"source"}),
		FallbacksServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_served_total",
			Help:      "Dashboard sections served from placeholder data.",
		}, []string{"section"}),
		IncidentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incident_events_total",
			Help:      "Incident events by type and publish outcome.",
		}, []string{"type", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route"}),
		DiscoveryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_results",
			Help:      "Entities left after filtering, per discovery request.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// ObserveProvider records the outcome and latency of one provider call.
func (m *Metrics) ObserveProvider(provider, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}
