package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a harvest run.
type Metrics struct {
	PagesFetched  prometheus.Counter
	FetchErrors   prometheus.Counter
	FetchDuration prometheus.Histogram

	RecordsSeen     prometheus.Counter
	RecordsAccepted prometheus.Counter
	RecordsRejected *prometheus.CounterVec // labels: reason={missing_field,implausible}

	RecordsExported *prometheus.CounterVec // labels: sink={json,sqlite,kafka}

	RunDuration    prometheus.Gauge
	LastRunSuccess prometheus.Gauge
}

// NewMetrics creates and registers all harvest metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.PagesFetched,
		m.FetchErrors,
		m.FetchDuration,
		m.RecordsSeen,
		m.RecordsAccepted,
		m.RecordsRejected,
		m.RecordsExported,
		m.RunDuration,
		m.LastRunSuccess,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_harvest",
			Name:      "pages_fetched_total",
			Help:      "Browse pages retrieved from NeoWs.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_harvest",
			Name:      "fetch_errors_total",
			Help:      "Browse page requests that failed.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_harvest",
			Name:      "fetch_duration_seconds",
			Help:      "NeoWs browse request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_harvest",
			Name:      "records_seen_total",
			Help:      "Raw records passed to the normaliser.",
		}),
		RecordsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_harvest",
			Name:      "records_accepted_total",
			Help:      "Records accepted into the document.",
		}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_harvest",
			Name:      "records_rejected_total",
			Help:      "Records dropped by the normaliser, by reason.",
		}, []string{"reason"}),
		RecordsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_harvest",
			Name:      "records_exported_total",
			Help:      "Records written per sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_harvest",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last harvest run.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_harvest",
			Name:      "last_run_success",
			Help:      "1 when the last harvest run wrote its document, 0 otherwise.",
		}),
	}
}

// WriteTextfile writes every metric in g to path in the text exposition
// format, for pickup by node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
