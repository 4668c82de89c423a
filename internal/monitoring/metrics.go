package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	RecordsScraped *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
}

// NewMetrics registers all collectors on the given registerer. Using an
// explicit registerer keeps tests free of duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "The total number of crawl runs",
		}, []string{"trigger", "outcome"}), // outcome: success, failure
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Duration of complete crawl runs",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		}),
		RecordsScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_records_scraped_total",
			Help: "The total number of booking records extracted",
		}, []string{"organization"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'source_unavailable', 'delivery_failed', 'persistence_failed'
	}
}

func (m *Metrics) IncRun(trigger, outcome string) {
	m.RunsTotal.WithLabelValues(trigger, outcome).Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
