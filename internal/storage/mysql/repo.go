// Package mysql implements storage.Repository for MySQL and MariaDB using
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/bayduroff/tableService/internal/ddl"
	myddl "github.com/bayduroff/tableService/internal/storage/mysql/ddl"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver form, e.g. "user:pass@tcp(localhost:3306)/catalog".
	DSN string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository parses the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if mc.DBName == "" {
		return nil, nil, fmt.Errorf("mysql dsn: database name is required")
	}
	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db}, close, nil
}

func (r *Repository) Kind() string { return "mysql" }

const listColumnsSQL = `SELECT COLUMN_NAME
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

// ListColumns reads the live columns of table in the connected database.
func (r *Repository) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listColumnsSQL, table)
	if err != nil {
		return nil, fmt.Errorf("mysql: list columns: %w", describe(err))
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysql: scan column: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: list columns: %w", describe(err))
	}
	return cols, nil
}

func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mysql: exec: %w", describe(err))
	}
	return nil
}

func (r *Repository) ExecArgs(ctx context.Context, stmt string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("mysql: exec: %w", describe(err))
	}
	return nil
}

func (r *Repository) CreateTableSQL(def ddl.TableDef) (string, error) {
	return myddl.BuildCreateTableSQL(def)
}

func (r *Repository) UpsertSQL(table string, columns []string, conflict string) (string, error) {
	return buildUpsertSQL(table, columns, conflict)
}

// buildUpsertSQL renders
//
//	INSERT INTO `t` (`a`, `b`) VALUES (?, ?)
//	ON DUPLICATE KEY UPDATE `b` = VALUES(`b`)
//
// MySQL has no DO NOTHING; a key-only table updates the key to itself.
func buildUpsertSQL(table string, columns []string, conflict string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("mysql: upsert: table must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("mysql: upsert: no columns for table %s", table)
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	var sets []string
	hasConflict := false
	for i, c := range columns {
		q := myddl.QuoteIdent(c)
		quoted[i] = q
		marks[i] = "?"
		if c == conflict {
			hasConflict = true
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
	}
	if !hasConflict {
		return "", fmt.Errorf("mysql: upsert: conflict column %q not among columns of %s", conflict, table)
	}
	if len(sets) == 0 {
		k := myddl.QuoteIdent(conflict)
		sets = []string{k + " = " + k}
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		myddl.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
		strings.Join(sets, ", "),
	), nil
}

func describe(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Errorf("error %d: %w", myErr.Number, err)
	}
	return err
}
