package metrics

import "time"

// StoreMetrics observes content store operations.
type StoreMetrics interface {
	// ObserveOperation records a completed store operation.
	//
	// Parameters:
	//   - backend: "filesystem", "memory" or "s3"
	//   - operation: "put", "get", "size", "exists", "delete" or "list"
	//   - duration: Time taken
	//   - err: Error if failed
	ObserveOperation(backend, operation string, duration time.Duration, err error)

	// RecordBytes records bytes moved by a put or get.
	RecordBytes(backend, operation string, bytes int64)
}

// NewNoopStoreMetrics returns a StoreMetrics that discards everything.
func NewNoopStoreMetrics() StoreMetrics {
	return noopStoreMetrics{}
}

type noopStoreMetrics struct{}

func (noopStoreMetrics) ObserveOperation(string, string, time.Duration, error) {}
func (noopStoreMetrics) RecordBytes(string, string, int64)                     {}
