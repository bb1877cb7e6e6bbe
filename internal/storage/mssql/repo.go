// Package mssql implements a Microsoft SQL Server repository on go-mssqldb.
// Upserts are single-row MERGE statements against the target table.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/bayduroff/tableService/internal/ddl"
	msddl "github.com/bayduroff/tableService/internal/storage/mssql/ddl"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db}, close, nil
}

func (r *Repository) Kind() string { return "mssql" }

const listColumnsSQL = `SELECT COLUMN_NAME
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1
ORDER BY ORDINAL_POSITION`

// ListColumns reads the live columns of table in the caller's default schema.
func (r *Repository) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listColumnsSQL, table)
	if err != nil {
		return nil, fmt.Errorf("mssql: list columns: %w", describe(err))
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mssql: scan column: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql: list columns: %w", describe(err))
	}
	return cols, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mssql: exec: %w", describe(err))
	}
	return nil
}

// ExecArgs executes a statement with @p1..@pN parameters.
func (r *Repository) ExecArgs(ctx context.Context, sqlText string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("mssql: exec: %w", describe(err))
	}
	return nil
}

func (r *Repository) CreateTableSQL(def ddl.TableDef) (string, error) {
	return msddl.BuildCreateTableSQL(def)
}

func (r *Repository) UpsertSQL(table string, columns []string, conflict string) (string, error) {
	return buildMergeSQL(table, columns, conflict)
}

// buildMergeSQL renders
//
//	MERGE INTO [t] WITH (HOLDLOCK) AS T
//	USING (SELECT @p1 AS [a], @p2 AS [b]) AS S
//	ON T.[a] = S.[a]
//	WHEN MATCHED THEN UPDATE SET T.[b] = S.[b]
//	WHEN NOT MATCHED THEN INSERT ([a], [b]) VALUES (S.[a], S.[b]);
//
// WHEN MATCHED is left out when the conflict column is the only column.
func buildMergeSQL(table string, columns []string, conflict string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("mssql: upsert: table must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("mssql: upsert: no columns for table %s", table)
	}

	quoted := mapIdent(columns)
	sel := make([]string, len(columns))
	vals := make([]string, len(columns))
	var sets []string
	hasConflict := false
	for i, c := range columns {
		sel[i] = fmt.Sprintf("@p%d AS %s", i+1, quoted[i])
		vals[i] = "S." + quoted[i]
		if c == conflict {
			hasConflict = true
			continue
		}
		sets = append(sets, fmt.Sprintf("T.%s = S.%s", quoted[i], quoted[i]))
	}
	if !hasConflict {
		return "", fmt.Errorf("mssql: upsert: conflict column %q not among columns of %s", conflict, table)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "MERGE INTO %s WITH (HOLDLOCK) AS T ", msddl.QuoteIdent(table))
	fmt.Fprintf(&sb, "USING (SELECT %s) AS S ", strings.Join(sel, ", "))
	k := msddl.QuoteIdent(conflict)
	fmt.Fprintf(&sb, "ON T.%s = S.%s ", k, k)
	if len(sets) > 0 {
		fmt.Fprintf(&sb, "WHEN MATCHED THEN UPDATE SET %s ", strings.Join(sets, ", "))
	}
	fmt.Fprintf(&sb, "WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		strings.Join(quoted, ", "), strings.Join(vals, ", "))
	return sb.String(), nil
}

// mapIdent maps a list of column names to their bracket-quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = msddl.QuoteIdent(c)
	}
	return out
}

// describe prefixes server errors with their error number so operators can
// look them up.
func describe(err error) error {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return fmt.Errorf("msg %d: %w", msErr.SQLErrorNumber(), err)
	}
	return err
}
