package prometheus

import (
	"time"

	"github.com/marmos91/dittophotos/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// libraryMetrics is the Prometheus implementation of metrics.LibraryMetrics.
type libraryMetrics struct {
	ingestTotal     *prometheus.CounterVec
	ingestDuration  prometheus.Histogram
	ingestBytes     prometheus.Counter
	exportTotal     *prometheus.CounterVec
	exportDuration  *prometheus.HistogramVec
	deleteTotal     *prometheus.CounterVec
	catalogItems    prometheus.Gauge
	catalogBytes    prometheus.Gauge
	liveViewHandles prometheus.Gauge
}

// NewLibraryMetrics creates a new Prometheus-backed LibraryMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewLibraryMetrics() metrics.LibraryMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopLibraryMetrics()
	}

	reg := metrics.GetRegistry()

	return &libraryMetrics{
		ingestTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittophotos_ingest_items_total",
				Help: "Total number of processed source files by outcome",
			},
			[]string{"outcome"},
		),
		ingestDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittophotos_ingest_item_duration_seconds",
				Help: "Time to read, encode, store and catalog one source file",
				Buckets: []float64{
					0.01, // 10ms
					0.05, // 50ms
					0.1,  // 100ms
					0.5,  // 500ms
					1,    // 1s
					5,    // 5s
					30,   // 30s
				},
			},
		),
		ingestBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittophotos_ingest_stored_bytes_total",
				Help: "Total canonical bytes stored by ingest",
			},
		),
		exportTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittophotos_export_total",
				Help: "Total number of exports by target format and status",
			},
			[]string{"format", "status"},
		),
		exportDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittophotos_export_duration_seconds",
				Help: "Duration of exports in seconds",
				Buckets: []float64{
					0.01, // 10ms
					0.1,  // 100ms
					0.5,  // 500ms
					1,    // 1s
					5,    // 5s
				},
			},
			[]string{"format"},
		),
		deleteTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittophotos_delete_total",
				Help: "Total number of deletes by status",
			},
			[]string{"status"},
		),
		catalogItems: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittophotos_catalog_items",
				Help: "Number of items currently in the catalog",
			},
		),
		catalogBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittophotos_catalog_bytes",
				Help: "Total stored bytes of cataloged items",
			},
		),
		liveViewHandles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittophotos_view_handles_live",
				Help: "Number of view handles not yet released",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *libraryMetrics) ObserveIngest(outcome string, duration time.Duration, bytes int64) {
	m.ingestTotal.WithLabelValues(outcome).Inc()
	m.ingestDuration.Observe(duration.Seconds())
	if bytes > 0 {
		m.ingestBytes.Add(float64(bytes))
	}
}

func (m *libraryMetrics) ObserveExport(format string, duration time.Duration, err error) {
	m.exportTotal.WithLabelValues(format, status(err)).Inc()
	m.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

func (m *libraryMetrics) ObserveDelete(_ time.Duration, err error) {
	m.deleteTotal.WithLabelValues(status(err)).Inc()
}

func (m *libraryMetrics) SetCatalog(items int, bytes int64) {
	m.catalogItems.Set(float64(items))
	m.catalogBytes.Set(float64(bytes))
}

func (m *libraryMetrics) SetLiveViews(count int64) {
	m.liveViewHandles.Set(float64(count))
}
