package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bayduroff/tableService/internal/metrics"
)

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   metrics.Labels
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{
			name: "sorted",
			in:   metrics.Labels{"step": "fetch", "job": "feed", "status": "success"},
			want: []string{"job:feed", "status:success", "step:fetch"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := labelsToTags(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("labelsToTags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend() error = nil, want error")
	}
}

// TestBackendSendsOverUDP points the client at a local UDP socket and checks
// that a flushed counter arrives with its namespace and tags.
func TestBackendSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket: %v", err)
	}
	defer pc.Close()

	b, err := NewBackend(Config{Addr: pc.LocalAddr().String(), Namespace: "tablesync."})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.TablesTotal, 1, metrics.Labels{"outcome": "created"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	// The client may also emit its own telemetry; read until our line shows up.
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	want := "tablesync." + metrics.TablesTotal + ":1|c"
	var got strings.Builder
	buf := make([]byte, 8192)
	for !strings.Contains(got.String(), want) {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("ReadFrom: %v (received %q)", err, got.String())
		}
		got.Write(buf[:n])
	}
	if !strings.Contains(got.String(), "outcome:created") {
		t.Fatalf("packets = %q", got.String())
	}
}
