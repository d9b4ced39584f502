package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/marmos91/dittophotos/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledReturnsNoop(t *testing.T) {
	metrics.ResetRegistry()

	assert.Equal(t, metrics.NewNoopLibraryMetrics(), NewLibraryMetrics())
	assert.Equal(t, metrics.NewNoopStoreMetrics(), NewStoreMetrics())
}

func TestLibraryMetrics(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	m, ok := NewLibraryMetrics().(*libraryMetrics)
	require.True(t, ok)

	m.ObserveIngest("success", 20*time.Millisecond, 1024)
	m.ObserveIngest("EncodeError", time.Millisecond, 0)
	m.ObserveExport("png", time.Millisecond, nil)
	m.ObserveExport("png", time.Millisecond, errors.New("boom"))
	m.ObserveDelete(time.Millisecond, nil)
	m.SetCatalog(3, 4096)
	m.SetLiveViews(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues("EncodeError")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.ingestBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportTotal.WithLabelValues("png", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deleteTotal.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.catalogItems))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.catalogBytes))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.liveViewHandles))
}

func TestStoreMetrics(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	m, ok := NewStoreMetrics().(*storeMetrics)
	require.True(t, ok)

	m.ObserveOperation("filesystem", "put", time.Millisecond, nil)
	m.RecordBytes("filesystem", "put", 512)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("filesystem", "put", "success")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues("filesystem", "put")))
}
