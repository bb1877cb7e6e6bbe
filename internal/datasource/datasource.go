// Package datasource defines where raw feed bytes come from. Implementations
// live in subpackages: file (local disk) and httpds (remote URL).
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh reader over the feed. Callers close the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
