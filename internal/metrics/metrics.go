// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from catalog synchronization runs.
//
// It exposes a narrow Backend interface (counters and durations) and a global,
// pluggable backend that defaults to a no-op implementation, so metrics are
// always safe to call even when no real backend is configured. Concrete
// systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names understood by every backend.
const (
	StepTotal           = "catalog_step_total"
	StepDurationSeconds = "catalog_step_duration_seconds"
	RecordsTotal        = "catalog_records_total"
	TablesTotal         = "catalog_tables_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
// Call it during startup, before any run records metrics.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of step and observes its duration.
// Steps are "fetch" and "sync_table".
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter, e.g. kind "upserted".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordTable counts one table reaching outcome ("created", "verified",
// "failed").
func RecordTable(job, outcome string) {
	backend.IncCounter(TablesTotal, 1, Labels{
		"job":     job,
		"outcome": outcome,
	})
}
