package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/bayduroff/tableService/internal/metrics"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "feed", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "tablesync"},
		{name: "explicit job name is preserved", jobName: "shop-feed", gatewayURL: "http://pushgateway:9091", wantJobName: "shop-feed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

// TestIncCounter verifies that IncCounter routes updates to the right
// collector and ignores unknown metric names.
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("feed", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "fetch", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 5, metrics.Labels{"kind": "upserted"})
	b.IncCounter(metrics.TablesTotal, 1, metrics.Labels{"outcome": "failed"})
	b.IncCounter(metrics.TablesTotal, 1, metrics.Labels{"outcome": "failed"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("fetch", "success")); got != 1 {
		t.Fatalf("step counter = %v, want 1", got)
	}
	if got := readCounterValue(t, b.recordCounter.WithLabelValues("upserted")); got != 5 {
		t.Fatalf("record counter = %v, want 5", got)
	}
	if got := readCounterValue(t, b.tableCounter.WithLabelValues("failed")); got != 2 {
		t.Fatalf("table counter = %v, want 2", got)
	}
}

// TestNilCollectors ensures a zero-value backend is a safe no-op.
func TestNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "upserted"})
	b.IncCounter(metrics.TablesTotal, 1, metrics.Labels{"outcome": "created"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("feed", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.ObserveHistogram(metrics.StepDurationSeconds, 1.5, metrics.Labels{"step": "sync_table", "status": "success"})
	b.ObserveHistogram("other_metric", 2, metrics.Labels{"step": "sync_table", "status": "success"})

	m := &dto.Metric{}
	obs, ok := b.stepDuration.WithLabelValues("sync_table", "success").(prometheus.Metric)
	if !ok {
		t.Fatalf("summary does not implement prometheus.Metric")
	}
	if err := obs.Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.GetSummary().GetSampleCount() != 1 || m.GetSummary().GetSampleSum() != 1.5 {
		t.Fatalf("summary = %v", m.GetSummary())
	}
}

// TestFlush verifies that Flush pushes the registry to the configured
// Pushgateway URL under the job grouping key.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequestInfo struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushRequestInfo, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequestInfo{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("shop-feed", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.TablesTotal, 1, metrics.Labels{"outcome": "created"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushRequestInfo
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not result in any HTTP request to the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/shop-feed") {
		t.Fatalf("path = %s, want job grouping key", got.path)
	}
	if len(got.body) == 0 {
		t.Fatalf("push body is empty")
	}
}

// BenchmarkIncCounterRecord measures the cost of incrementing the record
// counter through the Backend abstraction.
func BenchmarkIncCounterRecord(b *testing.B) {
	backend, err := NewBackend("feed", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"kind": "upserted"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RecordsTotal, 1, labels)
	}
}
