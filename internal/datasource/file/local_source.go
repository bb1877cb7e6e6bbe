// Package file implements a datasource backed by a local feed file, used for
// offline runs and tests.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a feed file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open returns the file for reading. A context that is already done short
// circuits without touching the filesystem. Filesystem errors are wrapped
// with the path and remain matchable with errors.Is (os.ErrNotExist etc.).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", l.path, err)
	}
	return f, nil
}

// Path returns the configured path.
func (l *Local) Path() string { return l.path }
