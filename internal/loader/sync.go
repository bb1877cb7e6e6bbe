// Package loader brings a database table in line with an inferred schema and
// writes catalog records into it.
//
// The synchronizer never alters a live table: an absent table is created, a
// present one is only checked. Columns that exist in the document but not in
// the database stop the table with a SchemaDriftError.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/bayduroff/tableService/internal/schema"
	"github.com/bayduroff/tableService/internal/storage"
)

// Outcome of a schema synchronization.
type Outcome string

const (
	Created  Outcome = "created"
	Verified Outcome = "verified"
)

// SchemaDriftError lists inferred columns missing from the live table, in
// schema order.
type SchemaDriftError struct {
	Table   string
	Missing []string
}

func (e *SchemaDriftError) Error() string {
	return fmt.Sprintf("schema drift in table %s: missing columns %s",
		e.Table, strings.Join(e.Missing, ", "))
}

// MissingNaturalKeyError means the inferred schema has no column to resolve
// upsert conflicts on.
type MissingNaturalKeyError struct {
	Table    string
	Expected string
}

func (e *MissingNaturalKeyError) Error() string {
	return fmt.Sprintf("table %s has no natural key column %s", e.Table, e.Expected)
}

// Logger is the logging surface used by the loader; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Synchronizer creates or verifies tables through a storage.Repository.
type Synchronizer struct {
	repo   storage.Repository
	rules  schema.Rules
	logger Logger
}

// NewSynchronizer returns a Synchronizer. A nil logger discards output.
func NewSynchronizer(repo storage.Repository, rules schema.Rules, logger Logger) *Synchronizer {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Synchronizer{repo: repo, rules: rules, logger: logger}
}

// Sync makes sure the table described by s exists with at least its columns
// and returns the column upserts must resolve conflicts on.
func (y *Synchronizer) Sync(ctx context.Context, s schema.Schema) (Outcome, string, error) {
	live, err := y.repo.ListColumns(ctx, s.Table)
	if err != nil {
		return "", "", storage.Wrap("list_columns", s.Table, err)
	}

	var outcome Outcome
	if len(live) == 0 {
		stmt, err := y.repo.CreateTableSQL(s.TableDef())
		if err != nil {
			return "", "", fmt.Errorf("render ddl for %s: %w", s.Table, err)
		}
		if err := y.repo.Exec(ctx, stmt); err != nil {
			return "", "", storage.Wrap("create_table", s.Table, err)
		}
		y.logger.Printf("stage=sync table=%s created columns=%d", s.Table, len(s.Columns))
		outcome = Created
	} else {
		if missing := missingColumns(s, live); len(missing) > 0 {
			return "", "", &SchemaDriftError{Table: s.Table, Missing: missing}
		}
		y.logger.Printf("stage=sync table=%s verified live=%d inferred=%d", s.Table, len(live), len(s.Columns))
		outcome = Verified
	}

	if s.Key == "" {
		return "", "", &MissingNaturalKeyError{Table: s.Table, Expected: y.rules.ExpectedKey(s.Table)}
	}
	return outcome, s.Key, nil
}

// missingColumns returns the schema columns absent from live, compared
// case-insensitively since some databases report folded names.
func missingColumns(s schema.Schema, live []string) []string {
	have := make(map[string]struct{}, len(live))
	for _, c := range live {
		have[strings.ToLower(c)] = struct{}{}
	}
	var missing []string
	for _, c := range s.Columns {
		if _, ok := have[strings.ToLower(c.Name)]; !ok {
			missing = append(missing, c.Name)
		}
	}
	return missing
}
