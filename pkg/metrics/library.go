package metrics

import "time"

// LibraryMetrics observes the ingest, export and delete pipelines.
//
// If no implementation is provided, the library uses the no-op one.
type LibraryMetrics interface {
	// ObserveIngest records one processed source file.
	//
	// Parameters:
	//   - outcome: "success" or the failure kind (e.g. "EncodeError")
	//   - duration: time spent on the item
	//   - bytes: stored size on success, 0 otherwise
	ObserveIngest(outcome string, duration time.Duration, bytes int64)

	// ObserveExport records one export to the given format.
	ObserveExport(format string, duration time.Duration, err error)

	// ObserveDelete records one delete.
	ObserveDelete(duration time.Duration, err error)

	// SetCatalog publishes the catalog aggregate counters.
	SetCatalog(items int, bytes int64)

	// SetLiveViews publishes the number of live view handles.
	SetLiveViews(count int64)
}

// NewNoopLibraryMetrics returns a LibraryMetrics that discards everything.
func NewNoopLibraryMetrics() LibraryMetrics {
	return noopLibraryMetrics{}
}

type noopLibraryMetrics struct{}

func (noopLibraryMetrics) ObserveIngest(string, time.Duration, int64) {}
func (noopLibraryMetrics) ObserveExport(string, time.Duration, error) {}
func (noopLibraryMetrics) ObserveDelete(time.Duration, error)         {}
func (noopLibraryMetrics) SetCatalog(int, int64)                      {}
func (noopLibraryMetrics) SetLiveViews(int64)                         {}
