// Package postgres implements a Postgres repository using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bayduroff/tableService/internal/ddl"
	pgddl "github.com/bayduroff/tableService/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", describe(err))
	}

	close := func() { pool.Close() }
	return &Repository{pool: pool}, close, nil
}

func (r *Repository) Kind() string { return "postgres" }

const listColumnsSQL = `SELECT column_name
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`

// ListColumns reads the live columns of table from information_schema. The
// name is lowered the same way CreateTableSQL lowers it.
func (r *Repository) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.pool.Query(ctx, listColumnsSQL, strings.ToLower(table))
	if err != nil {
		return nil, fmt.Errorf("postgres: list columns: %w", describe(err))
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan column: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list columns: %w", describe(err))
	}
	return cols, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

// ExecArgs runs a parameterized statement ($1..$n).
func (r *Repository) ExecArgs(ctx context.Context, sql string, args ...any) error {
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

func (r *Repository) CreateTableSQL(def ddl.TableDef) (string, error) {
	return pgddl.BuildCreateTableSQL(def)
}

func (r *Repository) UpsertSQL(table string, columns []string, conflict string) (string, error) {
	return buildUpsertSQL(table, columns, conflict)
}

// pgError annotates a server error with its detail and SQLSTATE while keeping
// the original error reachable through errors.As.
type pgError struct {
	*pgconn.PgError
}

func (e pgError) Error() string {
	msg := e.PgError.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%s (%s)", msg, e.SQLState())
}

func (e pgError) Unwrap() error { return e.PgError }

func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgError{pgErr}
	}
	return err
}
