package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the verification pipeline.
type Metrics struct {
	RowsProcessed    prometheus.Counter
	IDMatches        prometheus.Counter
	IDMismatches     prometheus.Counter
	DownloadFailures prometheus.Counter
	OCRFailures      prometheus.Counter
	OCRCacheHits     prometheus.Counter
	RunDuration      prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RowsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idmatch_rows_processed_total",
			Help: "Total number of spreadsheet rows processed",
		}),
		IDMatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idmatch_id_matches_total",
			Help: "Total rows where the extracted ID matched the spreadsheet value",
		}),
		IDMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idmatch_id_mismatches_total",
			Help: "Total rows where the extracted ID did not match the spreadsheet value",
		}),
		DownloadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idmatch_download_failures_total",
			Help: "Total card image downloads that failed",
		}),
		OCRFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idmatch_ocr_failures_total",
			Help: "Total OCR calls that failed",
		}),
		OCRCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idmatch_ocr_cache_hits_total",
			Help: "Total OCR calls served from the Redis text cache",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idmatch_run_duration_seconds",
			Help:    "Wall-clock duration of full verification runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) ObserveRow(match bool) {
	if m == nil {
		return
	}
	m.RowsProcessed.Inc()
	if match {
		m.IDMatches.Inc()
	} else {
		m.IDMismatches.Inc()
	}
}

func (m *Metrics) IncrementDownloadFailures() {
	if m == nil {
		return
	}
	m.DownloadFailures.Inc()
}

func (m *Metrics) IncrementOCRFailures() {
	if m == nil {
		return
	}
	m.OCRFailures.Inc()
}

func (m *Metrics) IncrementOCRCacheHits() {
	if m == nil {
		return
	}
	m.OCRCacheHits.Inc()
}

func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}
