package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dokan-dev/dokany-sub001/pkg/dokan"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	collector, err := NewCollector(&Config{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: "test",
	})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	return collector
}

func TestNewCollector(t *testing.T) {
	t.Parallel()

	t.Run("with valid config", func(t *testing.T) {
		config := &Config{
			Enabled:   true,
			Port:      9090,
			Path:      "/metrics",
			Namespace: "dokan",
			Subsystem: "test",
		}
		collector, err := NewCollector(config)
		if err != nil {
			t.Fatalf("NewCollector() error = %v, want nil", err)
		}
		if collector.config != config {
			t.Error("collector.config does not match input config")
		}
		if collector.Registry() == nil {
			t.Error("collector.registry is nil")
		}
		if collector.operations == nil {
			t.Error("collector.operations map is nil")
		}
	})

	t.Run("with nil config uses defaults", func(t *testing.T) {
		collector, err := NewCollector(nil)
		if err != nil {
			t.Fatalf("NewCollector(nil) error = %v, want nil", err)
		}
		if collector.config.Port != 9090 {
			t.Errorf("default port = %d, want 9090", collector.config.Port)
		}
		if collector.config.Path != "/metrics" {
			t.Errorf("default path = %q, want %q", collector.config.Path, "/metrics")
		}
		if collector.config.Namespace != "dokan" {
			t.Errorf("default namespace = %q, want %q", collector.config.Namespace, "dokan")
		}
	})

	t.Run("with disabled config", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: false})
		if err != nil {
			t.Fatalf("NewCollector() error = %v, want nil", err)
		}
		if collector.Registry() != nil {
			t.Error("disabled collector should not have registry")
		}
	})
}

func TestRecordOperation(t *testing.T) {
	t.Parallel()

	t.Run("counts by status", func(t *testing.T) {
		collector := newTestCollector(t)

		collector.RecordOperation(dokan.OpReadFile, dokan.StatusSuccess, 100*time.Millisecond)
		collector.RecordOperation(dokan.OpReadFile, dokan.StatusSuccess, 200*time.Millisecond)
		collector.RecordOperation(dokan.OpReadFile, dokan.StatusAccessDenied, 300*time.Millisecond)

		ok := collector.operationCounter.With(prometheus.Labels{
			"operation": dokan.OpReadFile,
			"status":    dokan.StatusSuccess.String(),
		})
		if got := testutil.ToFloat64(ok); got != 2 {
			t.Errorf("success count = %v, want 2", got)
		}
		denied := collector.operationCounter.With(prometheus.Labels{
			"operation": dokan.OpReadFile,
			"status":    dokan.StatusAccessDenied.String(),
		})
		if got := testutil.ToFloat64(denied); got != 1 {
			t.Errorf("access denied count = %v, want 1", got)
		}

		op := collector.GetMetrics()["operations"].(map[string]*OperationMetrics)[dokan.OpReadFile]
		if op.Count != 3 {
			t.Errorf("op.Count = %d, want 3", op.Count)
		}
		if op.Failures != 1 {
			t.Errorf("op.Failures = %d, want 1", op.Failures)
		}
		if op.AvgDuration != 200*time.Millisecond {
			t.Errorf("op.AvgDuration = %v, want 200ms", op.AvgDuration)
		}
		if op.LastStatus != dokan.StatusAccessDenied.String() {
			t.Errorf("op.LastStatus = %s", op.LastStatus)
		}
	})

	t.Run("observes latency", func(t *testing.T) {
		collector := newTestCollector(t)
		collector.RecordOperation(dokan.OpFindFiles, dokan.StatusSuccess, time.Millisecond)

		if got := testutil.CollectAndCount(collector.operationDuration); got != 1 {
			t.Errorf("duration series = %d, want 1", got)
		}
	})

	t.Run("disabled collector ignores operations", func(t *testing.T) {
		collector, err := NewCollector(&Config{Enabled: false})
		if err != nil {
			t.Fatalf("NewCollector() error = %v", err)
		}

		// Should not panic
		collector.RecordOperation(dokan.OpReadFile, dokan.StatusSuccess, time.Millisecond)
		collector.RecordBytes(dokan.OpReadFile, 10)
		collector.RecordFailure(dokan.OpReadFile, "DISPATCH_PANIC_RECOVERED")
		collector.SetOpenHandles(3)

		if len(collector.GetMetrics()["operations"].(map[string]*OperationMetrics)) != 0 {
			t.Error("disabled collector should not track operations")
		}
	})
}

func TestRecordBytes(t *testing.T) {
	t.Parallel()

	collector := newTestCollector(t)
	collector.RecordOperation(dokan.OpWriteFile, dokan.StatusSuccess, time.Millisecond)
	collector.RecordBytes(dokan.OpWriteFile, 4096)
	collector.RecordBytes(dokan.OpWriteFile, 1024)
	collector.RecordBytes(dokan.OpWriteFile, 0)

	op := collector.GetMetrics()["operations"].(map[string]*OperationMetrics)[dokan.OpWriteFile]
	if op.TotalBytes != 5120 {
		t.Errorf("op.TotalBytes = %d, want 5120", op.TotalBytes)
	}

	if got := testutil.CollectAndCount(collector.operationSize); got != 1 {
		t.Errorf("size series = %d, want 1", got)
	}
}

func TestRecordFailureAndOpenHandles(t *testing.T) {
	t.Parallel()

	collector := newTestCollector(t)
	collector.RecordFailure(dokan.OpCreateFile, "DISPATCH_PANIC_RECOVERED")
	collector.RecordFailure(dokan.OpCreateFile, "DISPATCH_PANIC_RECOVERED")
	collector.RecordFailure(dokan.OpReadFile, "DISPATCH_MARSHAL_FAILED")
	collector.SetOpenHandles(7)

	panics := collector.failureCounter.With(prometheus.Labels{
		"operation": dokan.OpCreateFile,
		"code":      "DISPATCH_PANIC_RECOVERED",
	})
	if got := testutil.ToFloat64(panics); got != 2 {
		t.Errorf("panic failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.openHandles); got != 7 {
		t.Errorf("open handles = %v, want 7", got)
	}
}

func TestConstLabels(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{
		Enabled:   true,
		Namespace: "dokan",
		Labels:    map[string]string{"service": "mirror"},
	})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	collector.SetOpenHandles(1)

	expected := `
# HELP dokan_open_handles Number of open file contexts
# TYPE dokan_open_handles gauge
dokan_open_handles{service="mirror"} 1
`
	if err := testutil.CollectAndCompare(collector.openHandles, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestResetMetrics(t *testing.T) {
	t.Parallel()

	collector := newTestCollector(t)
	collector.RecordOperation(dokan.OpCloseFile, dokan.StatusSuccess, time.Millisecond)
	before := collector.GetMetrics()["last_reset"].(time.Time)

	time.Sleep(time.Millisecond)
	collector.ResetMetrics()

	metrics := collector.GetMetrics()
	if len(metrics["operations"].(map[string]*OperationMetrics)) != 0 {
		t.Error("operations should be cleared after reset")
	}
	if !metrics["last_reset"].(time.Time).After(before) {
		t.Error("last_reset should advance")
	}
}

func TestConcurrentRecording(t *testing.T) {
	t.Parallel()

	collector := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				op := fmt.Sprintf("op-%d", i%4)
				collector.RecordOperation(op, dokan.StatusSuccess, time.Microsecond)
				collector.RecordBytes(op, 10)
				collector.SetOpenHandles(j)
			}
		}(i)
	}
	wg.Wait()

	var total int64
	for _, op := range collector.GetMetrics()["operations"].(map[string]*OperationMetrics) {
		total += op.Count
	}
	if total != 1000 {
		t.Errorf("total operations = %d, want 1000", total)
	}
}

func TestHTTPHandlers(t *testing.T) {
	t.Parallel()

	collector := newTestCollector(t)
	collector.RecordOperation(dokan.OpGetFileInformation, dokan.StatusFileNotFound, time.Millisecond)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	t.Run("metrics", func(t *testing.T) {
		body := get(t, server.URL+"/metrics")
		if !strings.Contains(body, `test_operations_total{operation="GetFileInformation"`) {
			t.Errorf("metrics output missing operation series:\n%s", body)
		}
	})

	t.Run("health", func(t *testing.T) {
		var health map[string]interface{}
		if err := json.Unmarshal([]byte(get(t, server.URL+"/health")), &health); err != nil {
			t.Fatalf("health is not JSON: %v", err)
		}
		if health["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", health["status"])
		}
	})

	t.Run("debug operations", func(t *testing.T) {
		body := get(t, server.URL+"/debug/operations")
		if !strings.Contains(body, "GetFileInformation") {
			t.Errorf("summary missing operation:\n%s", body)
		}
	})
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{Enabled: true, Port: 0, Path: "/metrics", Namespace: "start"})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := collector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := collector.Addr()
	if addr == nil {
		t.Fatal("Addr() is nil after Start")
	}

	body := get(t, "http://"+addr.String()+"/health")
	if !strings.Contains(body, "healthy") {
		t.Errorf("unexpected health body: %s", body)
	}

	if err := collector.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestStartDisabled(t *testing.T) {
	t.Parallel()

	collector, err := NewCollector(&Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}
	if err := collector.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if collector.Addr() != nil {
		t.Error("disabled collector should not listen")
	}
	if err := collector.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return string(body)
}
