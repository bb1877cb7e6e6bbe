// Package sqlite implements storage.Repository on SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bayduroff/tableService/internal/ddl"
	sqliteddl "github.com/bayduroff/tableService/internal/storage/sqlite/ddl"

	_ "modernc.org/sqlite"
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is a file path or URI, e.g. "catalog.db", "file:catalog.db?_pragma=busy_timeout(5000)"
	// or ":memory:".
	DSN string
}

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens a SQLite database. In-memory databases are pinned to a single
// connection, otherwise every pooled connection would see its own empty
// database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Repository { return &Repository{db: db} }

// NewRepository opens cfg.DSN, pings it and returns the repository together
// with its cleanup function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := Open(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return New(db), func() { _ = db.Close() }, nil
}

func (r *Repository) Kind() string { return "sqlite" }

// ListColumns reads the table's columns from pragma_table_info. A missing
// table produces no rows.
func (r *Repository) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list columns: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan column: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list columns: %w", err)
	}
	return cols, nil
}

// Exec executes a statement without arguments, typically DDL.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return fmt.Errorf("sqlite: exec: empty statement")
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// ExecArgs executes a parameterized statement.
func (r *Repository) ExecArgs(ctx context.Context, stmt string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

func (r *Repository) CreateTableSQL(def ddl.TableDef) (string, error) {
	return sqliteddl.BuildCreateTableSQL(def)
}

func (r *Repository) UpsertSQL(table string, columns []string, conflict string) (string, error) {
	return buildUpsertSQL(table, columns, conflict)
}

// DB exposes the underlying handle, mainly for tests.
func (r *Repository) DB() *sql.DB { return r.db }

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
