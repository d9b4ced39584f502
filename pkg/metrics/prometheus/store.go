package prometheus

import (
	"time"

	"github.com/marmos91/dittophotos/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics is the Prometheus implementation of metrics.StoreMetrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewStoreMetrics creates a new Prometheus-backed StoreMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
func NewStoreMetrics() metrics.StoreMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopStoreMetrics()
	}

	reg := metrics.GetRegistry()

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittophotos_store_operations_total",
				Help: "Total number of content store operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittophotos_store_operation_duration_seconds",
				Help: "Duration of content store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1,     // 1s
				},
			},
			[]string{"backend", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittophotos_store_bytes_total",
				Help: "Total bytes moved by content store puts and gets",
			},
			[]string{"backend", "operation"},
		),
	}
}

func (m *storeMetrics) ObserveOperation(backend, operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(backend, operation, status(err)).Inc()
	m.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordBytes(backend, operation string, bytes int64) {
	m.bytesTransferred.WithLabelValues(backend, operation).Add(float64(bytes))
}
