package loader

import (
	"context"
	"errors"
	"time"

	"github.com/bayduroff/tableService/internal/catalog"
	"github.com/bayduroff/tableService/internal/schema"
	"github.com/bayduroff/tableService/internal/storage"
)

// progressEvery is how many records pass between progress lines.
const progressEvery = 1000

// ErrNoKeyValue is returned by Upsert for a record without a value in the
// conflict column. UNIQUE admits many NULLs on most backends, so writing such
// a record would add a new row on every run.
var ErrNoKeyValue = errors.New("record has no value for the conflict column")

// Counts tallies an UpsertAll run.
type Counts struct {
	Upserted int
	// Skipped records had no value in the conflict column.
	Skipped int
}

// Upserter writes records one statement at a time.
type Upserter struct {
	repo   storage.Repository
	logger Logger
}

// NewUpserter returns an Upserter. A nil logger discards output.
func NewUpserter(repo storage.Repository, logger Logger) *Upserter {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Upserter{repo: repo, logger: logger}
}

// Values returns rec's values in schema column order, read through each
// column's first-seen raw key. Absent keys become nil (SQL NULL).
func Values(s schema.Schema, rec *catalog.Record) []any {
	vals := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		if v, ok := rec.Get(c.RawKey); ok {
			vals[i] = v
		}
	}
	return vals
}

// Upsert inserts rec, or overwrites every non-key column of the row that
// already holds rec's conflict value. A record without a conflict value is
// not written and yields ErrNoKeyValue.
func (u *Upserter) Upsert(ctx context.Context, s schema.Schema, rec *catalog.Record, conflict string) error {
	stmt, err := u.repo.UpsertSQL(s.Table, s.Names(), conflict)
	if err != nil {
		return err
	}
	vals := Values(s, rec)
	if !hasKeyValue(vals, keyIndex(s, conflict)) {
		return ErrNoKeyValue
	}
	return storage.Wrap("upsert", s.Table, u.repo.ExecArgs(ctx, stmt, vals...))
}

// UpsertAll upserts recs in order and stops at the first failure. Records
// without a conflict value are skipped and counted.
func (u *Upserter) UpsertAll(ctx context.Context, s schema.Schema, recs []*catalog.Record, conflict string) (Counts, error) {
	var c Counts
	stmt, err := u.repo.UpsertSQL(s.Table, s.Names(), conflict)
	if err != nil {
		return c, err
	}
	key := keyIndex(s, conflict)

	var (
		start     = time.Now()
		lastTS    = start
		lastCount int
	)
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		vals := Values(s, rec)
		if !hasKeyValue(vals, key) {
			c.Skipped++
			continue
		}
		if err := u.repo.ExecArgs(ctx, stmt, vals...); err != nil {
			u.logger.Printf("stage=upsert table=%s failed after=%d err=%v", s.Table, c.Upserted, err)
			return c, storage.Wrap("upsert", s.Table, err)
		}
		c.Upserted++
		n := c.Upserted

		if n%progressEvery == 0 {
			now := time.Now()
			since := now.Sub(lastTS)
			rps := float64(0)
			if since > 0 {
				rps = float64(n-lastCount) / since.Seconds()
			}
			u.logger.Printf("stage=upsert table=%s rows=%d rps=%.0f elapsed=%s",
				s.Table, n, rps, now.Sub(start).Truncate(time.Millisecond))
			lastTS, lastCount = now, n
		}
	}
	if c.Skipped > 0 {
		u.logger.Printf("stage=upsert table=%s skipped=%d reason=no_%s", s.Table, c.Skipped, conflict)
	}
	return c, nil
}

func keyIndex(s schema.Schema, conflict string) int {
	for i, c := range s.Columns {
		if c.Name == conflict {
			return i
		}
	}
	return -1
}

// hasKeyValue reports whether vals carries a conflict value; an unknown
// column (i < 0) is left for the database to judge.
func hasKeyValue(vals []any, i int) bool {
	return i < 0 || vals[i] != nil
}
