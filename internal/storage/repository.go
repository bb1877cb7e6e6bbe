// Package storage defines the database contract used by the catalog loader
// and a small registry of backends. Concrete backends (postgres, sqlite,
// mssql, mysql) register themselves from init; import
// internal/storage/all to enable every built-in kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bayduroff/tableService/internal/ddl"
)

// Executor runs statements against the database.
type Executor interface {
	// ListColumns returns the live column names of table. An unknown table
	// yields an empty slice and a nil error.
	ListColumns(ctx context.Context, table string) ([]string, error)
	// Exec runs a statement without arguments (DDL).
	Exec(ctx context.Context, stmt string) error
	// ExecArgs runs a parameterized statement.
	ExecArgs(ctx context.Context, stmt string, args ...any) error
}

// Dialect renders the statements whose syntax differs per backend.
type Dialect interface {
	// CreateTableSQL renders the idempotent CREATE TABLE for def.
	CreateTableSQL(def ddl.TableDef) (string, error)
	// UpsertSQL renders a single-row insert that updates every column except
	// conflict when a row with the same conflict value exists. Placeholders
	// are positional, one per column, in columns order.
	UpsertSQL(table string, columns []string, conflict string) (string, error)
}

// Repository is an open database handle for one backend kind.
type Repository interface {
	Executor
	Dialect
	Kind() string
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind. Kind aliases are normalized first.
func New(ctx context.Context, cfg Config) (Repository, error) {
	cfg.Kind = NormalizeKind(cfg.Kind)

	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NormalizeKind maps common driver names onto registered kinds.
func NormalizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	switch k {
	case "postgresql", "pgx", "pg":
		return "postgres"
	case "sqlserver", "mssqlserver":
		return "mssql"
	case "sqlite3":
		return "sqlite"
	case "mariadb":
		return "mysql"
	}
	return k
}
