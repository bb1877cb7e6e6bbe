package sqlite

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"testing"

	"github.com/bayduroff/tableService/internal/ddl"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestListColumns_UnknownTableIsEmpty(t *testing.T) {
	t.Parallel()

	cols, err := newRepo(t).ListColumns(context.Background(), "offers")
	if err != nil {
		t.Fatalf("ListColumns: %v", err)
	}
	if len(cols) != 0 {
		t.Fatalf("cols = %v, want empty", cols)
	}
}

// TestCreateAndUpsert creates a table through the dialect, upserts the same
// key twice and checks the row was updated in place.
func TestCreateAndUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := newRepo(t)

	stmt, err := r.CreateTableSQL(ddl.TableDef{Name: "offers", Columns: []ddl.ColumnDef{
		{Name: "_id", SQLType: "TEXT"},
		{Name: "vendorcode", SQLType: "VARCHAR(255) UNIQUE"},
		{Name: "price", SQLType: "TEXT"},
	}})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if err := r.Exec(ctx, stmt); err != nil {
		t.Fatalf("create: %v", err)
	}
	// IF NOT EXISTS keeps the second run harmless.
	if err := r.Exec(ctx, stmt); err != nil {
		t.Fatalf("create again: %v", err)
	}

	cols, err := r.ListColumns(ctx, "offers")
	if err != nil {
		t.Fatalf("ListColumns: %v", err)
	}
	if want := []string{"id", "_id", "vendorcode", "price"}; !reflect.DeepEqual(cols, want) {
		t.Fatalf("cols = %v, want %v", cols, want)
	}

	up, err := r.UpsertSQL("offers", []string{"_id", "vendorcode", "price"}, "vendorcode")
	if err != nil {
		t.Fatalf("UpsertSQL: %v", err)
	}
	if err := r.ExecArgs(ctx, up, "A1", "V1", "10"); err != nil {
		t.Fatalf("upsert 1: %v", err)
	}
	if err := r.ExecArgs(ctx, up, "A1", "V1", nil); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}

	var (
		n     int
		price sql.NullString
	)
	if err := r.DB().QueryRowContext(ctx, `SELECT COUNT(*), MAX(price) FROM offers`).Scan(&n, &price); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 1 || price.Valid {
		t.Fatalf("rows=%d price=%v, want 1 row with NULL price", n, price)
	}
}

func TestExec_Errors(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	if err := r.Exec(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty statement")
	}
	err := r.Exec(context.Background(), "CREATE TABLE")
	if err == nil || !strings.HasPrefix(err.Error(), "sqlite: exec:") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildUpsertSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		table       string
		cols        []string
		conflict    string
		want        string
		errContains string
	}{
		{
			name:     "updates non-key columns",
			table:    "categories",
			cols:     []string{"_id", "_parentid", "_text"},
			conflict: "_id",
			want: `INSERT INTO "categories" ("_id", "_parentid", "_text") VALUES (?, ?, ?) ` +
				`ON CONFLICT ("_id") DO UPDATE SET "_parentid" = excluded."_parentid", "_text" = excluded."_text"`,
		},
		{
			name:     "key only",
			table:    "t",
			cols:     []string{"_id"},
			conflict: "_id",
			want:     `INSERT INTO "t" ("_id") VALUES (?) ON CONFLICT ("_id") DO NOTHING`,
		},
		{
			name:        "conflict not in columns",
			table:       "t",
			cols:        []string{"a"},
			conflict:    "_id",
			errContains: "not among columns",
		},
		{
			name:        "no columns",
			table:       "t",
			conflict:    "_id",
			errContains: "no columns",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := buildUpsertSQL(tt.table, tt.cols, tt.conflict)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("err = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}
