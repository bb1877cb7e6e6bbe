package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/bayduroff/tableService/internal/datasource"

	"github.com/zeebo/xxh3"
)

// Source yields the root node of a catalog document.
type Source interface {
	Fetch(ctx context.Context) (Node, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Node, error)

func (f SourceFunc) Fetch(ctx context.Context) (Node, error) { return f(ctx) }

// Logger is the subset of *log.Logger used here.
type Logger interface {
	Printf(format string, v ...any)
}

// Snapshot describes the raw bytes behind the most recent successful fetch.
type Snapshot struct {
	Bytes  int
	Digest uint64 // xxh3 of the raw payload
	Root   string
}

// Fetcher reads a document from a datasource.Source and parses it.
type Fetcher struct {
	src datasource.Source
	log Logger

	mu   sync.Mutex
	last Snapshot
}

// NewFetcher returns a Fetcher over src. A nil logger discards output.
func NewFetcher(src datasource.Source, logger Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Fetcher{src: src, log: logger}
}

// Fetch opens the underlying source, reads it fully and parses the payload.
func (f *Fetcher) Fetch(ctx context.Context) (Node, error) {
	rc, err := f.src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("document: open source: %w", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("document: read source: %w", err)
	}

	root, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	snap := Snapshot{Bytes: len(b), Digest: xxh3.Hash(b), Root: root.Local}
	f.mu.Lock()
	f.last = snap
	f.mu.Unlock()

	f.log.Printf("stage=fetch ok bytes=%d xxh3=%016x root=%s", snap.Bytes, snap.Digest, snap.Root)
	return root, nil
}

// Last returns the snapshot of the most recent successful Fetch.
func (f *Fetcher) Last() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
