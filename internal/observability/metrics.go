package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// places discovery engine.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: stage={primary,simplified}, outcome={ok,empty,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Provider call metrics.
	ProviderDuration *prometheus.HistogramVec // labels: provider={nominatim,overpass}

	// Request scheduler metrics.
	QueueDepth prometheus.Gauge

	// Place search and discovery metrics.
	PlaceSearches    *prometheus.CounterVec // labels: outcome={ok,error}
	PlacesReturned   prometheus.Histogram
	DiscoveryRuns    prometheus.Counter
	FallbacksApplied prometheus.Counter
	EventsPublished  prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "places",
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by retry stage and outcome.",
		}, []string{"stage", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "places",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "places",
			Name:      "provider_duration_seconds",
			Help:      "Outbound provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "places",
			Name:      "request_queue_depth",
			Help:      "Number of provider calls waiting in the scheduler queue.",
		}),
		PlaceSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "places",
			Name:      "place_searches_total",
			Help:      "Category place searches by outcome.",
		}, []string{"outcome"}),
		PlacesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "places",
			Name:      "places_returned",
			Help:      "Number of ranked places returned per discovery run.",
			Buckets:   []float64{0, 5, 10, 20, 40, 60, 80, 100},
		}),
		DiscoveryRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "places",
			Name:      "discovery_runs_total",
			Help:      "Total multi-category discovery requests served.",
		}),
		FallbacksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "places",
			Name:      "fallbacks_applied_total",
			Help:      "Total times the static coordinate table substituted a failed geocode.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "places",
			Name:      "events_published_total",
			Help:      "Total telemetry events published to Kafka.",
		}),
	}

	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.ProviderDuration,
		m.QueueDepth,
		m.PlaceSearches,
		m.PlacesReturned,
		m.DiscoveryRuns,
		m.FallbacksApplied,
		m.EventsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		GeocodeRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "places", Name: "geocode_requests_total"}, []string{"stage", "outcome"}),
		GeocodeCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "places", Name: "geocode_cache_total"}, []string{"result"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "places", Name: "provider_duration_seconds"}, []string{"provider"}),
		QueueDepth:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "places", Name: "request_queue_depth"}),
		PlaceSearches:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "places", Name: "place_searches_total"}, []string{"outcome"}),
		PlacesReturned:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "places", Name: "places_returned"}),
		DiscoveryRuns:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "places", Name: "discovery_runs_total"}),
		FallbacksApplied: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "places", Name: "fallbacks_applied_total"}),
		EventsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "places", Name: "events_published_total"}),
	}
}
