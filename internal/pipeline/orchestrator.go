// Package pipeline sequences a catalog sync: fetch the document once, derive
// its tables, then create or verify each table and upsert its records.
//
// Tables are rebuilt from the cached document on every call; only the parsed
// document is kept. A failed fetch is not cached, so the next call retries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bayduroff/tableService/internal/catalog"
	"github.com/bayduroff/tableService/internal/ddl"
	"github.com/bayduroff/tableService/internal/document"
	"github.com/bayduroff/tableService/internal/loader"
	"github.com/bayduroff/tableService/internal/metrics"
	"github.com/bayduroff/tableService/internal/schema"
	"github.com/bayduroff/tableService/internal/storage"
)

// UnknownTableError is returned for a table name the document does not yield.
type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

// Logger is the logging surface of the orchestrator; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// ErrNoRepository is returned by sync operations of an Orchestrator built
// without a database.
var ErrNoRepository = errors.New("pipeline: no database configured")

// Options configure an Orchestrator. Zero values get defaults.
type Options struct {
	// Job labels logs and metrics.
	Job string
	// RootTag names the element holding the collections; default "shop".
	RootTag string
	Rules   schema.Rules
	Logger  Logger
}

// Orchestrator runs catalog operations against one document source and one
// database. It is safe for concurrent use.
type Orchestrator struct {
	src  document.Source
	repo storage.Repository
	opts Options
	log  Logger

	syncer *loader.Synchronizer
	upsert *loader.Upserter

	fetches singleflight.Group
	mu      sync.Mutex
	doc     document.Node
	locks   map[string]*sync.Mutex
}

// New returns an Orchestrator. Nothing is fetched until the first operation.
// repo may be nil when only ListTables and DescribeTable are needed.
func New(src document.Source, repo storage.Repository, opts Options) *Orchestrator {
	if opts.Job == "" {
		opts.Job = "tablesync"
	}
	if opts.RootTag == "" {
		opts.RootTag = catalog.DefaultRootTag
	}
	var logger Logger = nopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	return &Orchestrator{
		src:    src,
		repo:   repo,
		opts:   opts,
		log:    logger,
		syncer: loader.NewSynchronizer(repo, opts.Rules, logger),
		upsert: loader.NewUpserter(repo, logger),
		locks:  make(map[string]*sync.Mutex),
	}
}

// document returns the cached document, fetching it on first use. Concurrent
// first calls share one fetch. The fetch is detached from the caller's
// cancellation so one caller giving up does not fail the others; each caller
// still stops waiting when its own ctx is done.
func (o *Orchestrator) document(ctx context.Context) (document.Node, error) {
	o.mu.Lock()
	doc := o.doc
	o.mu.Unlock()
	if doc != nil {
		return doc, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := o.fetches.DoChan("document", func() (any, error) {
		o.mu.Lock()
		cached := o.doc
		o.mu.Unlock()
		if cached != nil {
			return cached, nil
		}

		start := time.Now()
		n, err := o.src.Fetch(fetchCtx)
		metrics.RecordStep(o.opts.Job, "fetch", err, time.Since(start))
		if err != nil {
			o.log.Printf("stage=fetch job=%s failed err=%v", o.opts.Job, err)
			return nil, storage.Wrap("fetch", "", err)
		}

		o.mu.Lock()
		o.doc = n
		o.mu.Unlock()
		return n, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(document.Node), nil
	}
}

func (o *Orchestrator) tables(ctx context.Context) ([]catalog.Table, error) {
	doc, err := o.document(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.BuildTables(doc, o.opts.RootTag)
}

func (o *Orchestrator) table(ctx context.Context, name string) (catalog.Table, error) {
	tables, err := o.tables(ctx)
	if err != nil {
		return catalog.Table{}, err
	}
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	return catalog.Table{}, &UnknownTableError{Table: name}
}

// ListTables returns the names of the non-empty collections in document order.
func (o *Orchestrator) ListTables(ctx context.Context) ([]string, error) {
	tables, err := o.tables(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names, nil
}

// DescribeTable renders the canonical CREATE TABLE statement for name. It
// never touches the database.
func (o *Orchestrator) DescribeTable(ctx context.Context, name string) (string, error) {
	t, err := o.table(ctx, name)
	if err != nil {
		return "", err
	}
	s, err := schema.Infer(t, o.opts.Rules)
	if err != nil {
		return "", err
	}
	return ddl.BuildCreateTableSQL(s.TableDef())
}

// SyncTable creates or verifies table name and upserts all of its records.
// Unknown names fail before any database call.
func (o *Orchestrator) SyncTable(ctx context.Context, name string) (TableResult, error) {
	t, err := o.table(ctx, name)
	if err != nil {
		return TableResult{Table: name}, err
	}
	return o.syncTable(ctx, t)
}

// SyncAll syncs every table in document order. A table failure is recorded in
// the report and the remaining tables still run; only a document failure or
// cancellation ends the run early.
func (o *Orchestrator) SyncAll(ctx context.Context) (Report, error) {
	started := time.Now()
	tables, err := o.tables(ctx)
	if err != nil {
		return Report{Job: o.opts.Job}, err
	}

	rep := Report{Job: o.opts.Job}
	if s, ok := o.src.(interface{ Last() document.Snapshot }); ok {
		rep.Snapshot = s.Last()
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			rep.Duration = time.Since(started)
			return rep, err
		}
		res, err := o.syncTable(ctx, t)
		if err != nil {
			rep.Failures = append(rep.Failures, TableFailure{Table: t.Name, Err: err})
			continue
		}
		rep.Results = append(rep.Results, res)
	}
	rep.Duration = time.Since(started)
	o.log.Printf("stage=sync_all job=%s tables=%d synced=%d failed=%d rows=%d skipped=%d duration=%s",
		o.opts.Job, len(tables), len(rep.Results), len(rep.Failures), rep.Rows(), rep.Skipped(), rep.Duration.Truncate(time.Millisecond))
	return rep, nil
}

func (o *Orchestrator) syncTable(ctx context.Context, t catalog.Table) (res TableResult, err error) {
	if o.repo == nil {
		return TableResult{Table: t.Name}, ErrNoRepository
	}
	lock := o.tableLock(t.Name)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	res = TableResult{Table: t.Name}
	defer func() {
		res.Duration = time.Since(start)
		metrics.RecordStep(o.opts.Job, "sync_table", err, res.Duration)
		if err != nil {
			metrics.RecordTable(o.opts.Job, "failed")
			o.log.Printf("stage=sync_table table=%s failed err=%v", t.Name, err)
			return
		}
		metrics.RecordTable(o.opts.Job, string(res.Outcome))
		metrics.RecordRow(o.opts.Job, "upserted", int64(res.Rows))
		metrics.RecordRow(o.opts.Job, "skipped_no_key", int64(res.Skipped))
		o.log.Printf("stage=sync_table table=%s ok outcome=%s rows=%d skipped=%d duration=%s",
			t.Name, res.Outcome, res.Rows, res.Skipped, res.Duration.Truncate(time.Millisecond))
	}()

	s, err := schema.Infer(t, o.opts.Rules)
	if err != nil {
		return res, err
	}
	outcome, conflict, err := o.syncer.Sync(ctx, s)
	if err != nil {
		return res, err
	}
	res.Outcome, res.Conflict = outcome, conflict

	c, err := o.upsert.UpsertAll(ctx, s, t.Records, conflict)
	res.Rows, res.Skipped = c.Upserted, c.Skipped
	return res, err
}

func (o *Orchestrator) tableLock(name string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[name]
	if !ok {
		l = &sync.Mutex{}
		o.locks[name] = l
	}
	return l
}
