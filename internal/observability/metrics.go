package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travelbuddy"

// Metrics holds the Prometheus counters and histograms for the import service.
type Metrics struct {
	// Import metrics.
	ImportRuns       *prometheus.CounterVec // labels: outcome={completed,precondition_failed}
	ImportDuration   prometheus.Histogram
	ImportCandidates *prometheus.CounterVec // labels: outcome={saved,skipped_duplicate,failed}

	ExtractionAttempts *prometheus.CounterVec // labels: tier, outcome={success,generator_error,invalid_output}
	DedupeDecisions    *prometheus.CounterVec // labels: outcome={fast_path,unique,duplicate,fail_open}

	// Places metrics.
	EnrichmentLookups *prometheus.CounterVec   // labels: outcome={success,empty,error}
	PlacesAPIDuration *prometheus.HistogramVec // labels: method={textsearch,details}
	PlacesCache       *prometheus.CounterVec   // labels: method, result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ImportRuns,
		m.ImportDuration,
		m.ImportCandidates,
		m.ExtractionAttempts,
		m.DedupeDecisions,
		m.EnrichmentLookups,
		m.PlacesAPIDuration,
		m.PlacesCache,
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
		ImportRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Import runs by outcome.",
		}, []string{"outcome"}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Duration of a complete import run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ImportCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_candidates_total",
			Help:      "Imported candidates by outcome.",
		}, []string{"outcome"}),
		ExtractionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_attempts_total",
			Help:      "Extraction attempts by model tier and outcome.",
		}, []string{"tier", "outcome"}),
		DedupeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dedupe_decisions_total",
			Help:      "Duplicate resolution decisions by outcome.",
		}, []string{"outcome"}),
		EnrichmentLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_lookups_total",
			Help:      "Place enrichment lookups by outcome.",
		}, []string{"outcome"}),
		PlacesAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "places_api_duration_seconds",
			Help:      "Places API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		PlacesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_cache_total",
			Help:      "Places cache lookups by method and result.",
		}, []string{"method", "result"}),
	}
}
