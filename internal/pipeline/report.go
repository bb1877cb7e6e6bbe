package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/bayduroff/tableService/internal/document"
	"github.com/bayduroff/tableService/internal/loader"
)

// TableResult describes one successfully synced table.
type TableResult struct {
	Table    string
	Outcome  loader.Outcome
	Conflict string // column upserts resolved conflicts on
	Rows     int
	// Skipped records had no value for Conflict and were not written.
	Skipped  int
	Duration time.Duration
}

// TableFailure pairs a table with the error that stopped it.
type TableFailure struct {
	Table string
	Err   error
}

// Report summarizes a SyncAll run.
type Report struct {
	Job string
	// Snapshot describes the fetched document when the source records one.
	Snapshot document.Snapshot
	Results  []TableResult
	Failures []TableFailure
	Duration time.Duration
}

// Rows is the number of records upserted across all tables.
func (r Report) Rows() int {
	n := 0
	for _, res := range r.Results {
		n += res.Rows
	}
	return n
}

// Skipped is the number of records left out for lacking a natural key value.
func (r Report) Skipped() int {
	n := 0
	for _, res := range r.Results {
		n += res.Skipped
	}
	return n
}

// Err joins the table failures, or returns nil when every table synced.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = fmt.Errorf("table %s: %w", f.Table, f.Err)
	}
	return errors.Join(errs...)
}
