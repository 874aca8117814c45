package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.DocumentsTotal == nil || r.SyncItemsTotal == nil || r.StorageNodesTotal == nil {
		t.Error("metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordSyncItem(t *testing.T) {
	r := NewRegistry()
	r.RecordSyncItem("node", "inserted")
	r.RecordSyncItem("node", "inserted")
	r.RecordSyncItem("node", "skipped")

	counter, err := r.SyncItemsTotal.GetMetricWithLabelValues("node", "inserted")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("inserted counter = %v, want 2", got)
	}
}

func TestRecordExtraction(t *testing.T) {
	r := NewRegistry()
	r.RecordExtraction("ok", 3*time.Millisecond, 7)
	r.RecordExtraction("error", 0, 0)

	var metric dto.Metric
	if err := r.ExtractionDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("duration samples = %d, want 1", got)
	}

	counter, _ := r.DocumentsTotal.GetMetricWithLabelValues("error")
	metric.Reset()
	counter.Write(&metric)
	if metric.GetCounter().GetValue() != 1 {
		t.Errorf("error documents = %v, want 1", metric.GetCounter().GetValue())
	}
}

func TestUpdateStorageCounts(t *testing.T) {
	r := NewRegistry()
	r.UpdateStorageCounts(10, 4)

	var metric dto.Metric
	r.StorageEdgesTotal.Write(&metric)
	if metric.GetGauge().GetValue() != 4 {
		t.Errorf("edges gauge = %v, want 4", metric.GetGauge().GetValue())
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordStoreOperation("read", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "storygraph_store_operations_total") {
		t.Errorf("handler output missing store metric:\n%s", body)
	}
}
