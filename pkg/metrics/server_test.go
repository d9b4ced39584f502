package metrics_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittophotos/pkg/metrics"
	promMetrics "github.com/marmos91/dittophotos/pkg/metrics/prometheus"
)

type summaryBody struct {
	MetricsPath string                  `json:"metrics_path"`
	Families    []metrics.FamilySummary `json:"families"`
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func family(t *testing.T, families []metrics.FamilySummary, name string) metrics.FamilySummary {
	t.Helper()
	for _, f := range families {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("family %s not in summary", name)
	return metrics.FamilySummary{}
}

func TestServerDisabled(t *testing.T) {
	metrics.ResetRegistry()

	s := metrics.NewServer(metrics.ServerConfig{})
	assert.Equal(t, 9090, s.Port())
	assert.Equal(t, ":9090", s.Addr())

	for _, path := range []string{"/metrics", "/metrics/summary", "/"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, s.Handler(), path).Code, path)
	}
}

func TestServerSummarizesLibraryAndStoreCollectors(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	lib := promMetrics.NewLibraryMetrics()
	store := promMetrics.NewStoreMetrics()

	lib.ObserveIngest("success", 20*time.Millisecond, 1024)
	lib.ObserveIngest("success", 10*time.Millisecond, 512)
	lib.ObserveIngest("EncodeError", time.Millisecond, 0)
	lib.SetCatalog(2, 1536)
	store.ObserveOperation("filesystem", "put", time.Millisecond, nil)
	store.RecordBytes("filesystem", "put", 1536)

	s := metrics.NewServer(metrics.ServerConfig{Host: "127.0.0.1", Port: 19090})

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dittophotos_catalog_items 2")

	for _, path := range []string{"/", "/metrics/summary"} {
		rec = get(t, s.Handler(), path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var body summaryBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "/metrics", body.MetricsPath)

		ingest := family(t, body.Families, "dittophotos_ingest_items_total")
		assert.Equal(t, "counter", ingest.Type)
		assert.Equal(t, 3.0, ingest.Value)
		assert.Equal(t, map[string]float64{"outcome=success": 2, "outcome=EncodeError": 1}, ingest.Series)

		duration := family(t, body.Families, "dittophotos_ingest_item_duration_seconds")
		assert.Equal(t, "histogram", duration.Type)
		assert.Equal(t, 3.0, duration.Value)
		assert.InDelta(t, 0.031, duration.Sum, 1e-9)

		assert.Equal(t, 1536.0, family(t, body.Families, "dittophotos_catalog_bytes").Value)
		assert.Equal(t, 1536.0, family(t, body.Families, "dittophotos_store_bytes_total").Value)

		for i := 1; i < len(body.Families); i++ {
			assert.Less(t, body.Families[i-1].Name, body.Families[i].Name)
		}
	}

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/nope").Code)
}

func TestSummarizeFiltersByPrefix(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	promMetrics.NewStoreMetrics().ObserveOperation("s3", "get", time.Millisecond, nil)

	all, err := metrics.Summarize(metrics.GetRegistry(), metrics.Namespace)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	none, err := metrics.Summarize(metrics.GetRegistry(), "go_")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestServerStartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port

	s := metrics.NewServer(metrics.ServerConfig{Host: "127.0.0.1", Port: port})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func TestServerStopIsIdempotent(t *testing.T) {
	s := metrics.NewServer(metrics.ServerConfig{Host: "127.0.0.1", Port: 19091})
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
