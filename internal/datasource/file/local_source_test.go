package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?><yml_catalog><shop/></yml_catalog>`

// TestLocalOpen covers success, missing file and a pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	writeFeed := func(t *testing.T) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "feed.xml")
		if err := os.WriteFile(p, []byte(sampleFeed), 0o644); err != nil {
			t.Fatalf("write feed: %v", err)
		}
		return p
	}
	canceled := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	cases := []struct {
		name            string
		path            func(t *testing.T) string
		ctx             context.Context
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}{
		{
			name:        "reads_feed",
			path:        writeFeed,
			ctx:         context.Background(),
			wantContent: sampleFeed,
		},
		{
			name: "missing_file_is_wrapped",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.xml")
			},
			ctx:             context.Background(),
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open feed ",
		},
		{
			name:      "pre_canceled_context",
			path:      writeFeed,
			ctx:       canceled(),
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			src := NewLocal(c.path(t))
			rc, err := src.Open(c.ctx)

			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain %q", err, c.wantErrContains)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()

			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q, want %q", got, c.wantContent)
			}
		})
	}
}
