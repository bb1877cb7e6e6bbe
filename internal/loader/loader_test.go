package loader

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/bayduroff/tableService/internal/catalog"
	"github.com/bayduroff/tableService/internal/ddl"
	"github.com/bayduroff/tableService/internal/schema"
	"github.com/bayduroff/tableService/internal/storage"
	_ "github.com/bayduroff/tableService/internal/storage/sqlite"
)

// fakeRepo records every call and serves canned live columns.
type fakeRepo struct {
	live    []string
	listErr error
	execErr error

	execs   []string
	args    [][]any
	upserts int
}

func (f *fakeRepo) ListColumns(ctx context.Context, table string) ([]string, error) {
	return f.live, f.listErr
}

func (f *fakeRepo) Exec(ctx context.Context, stmt string) error {
	f.execs = append(f.execs, stmt)
	return f.execErr
}

func (f *fakeRepo) ExecArgs(ctx context.Context, stmt string, args ...any) error {
	f.upserts++
	f.args = append(f.args, args)
	return f.execErr
}

func (f *fakeRepo) CreateTableSQL(def ddl.TableDef) (string, error) {
	return ddl.BuildCreateTableSQL(def)
}

func (f *fakeRepo) UpsertSQL(table string, columns []string, conflict string) (string, error) {
	return "UPSERT " + table + " ON " + conflict, nil
}

func (f *fakeRepo) Kind() string { return "fake" }
func (f *fakeRepo) Close()       {}

func record(kv ...string) *catalog.Record {
	r := catalog.NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func offersSchema(t *testing.T) schema.Schema {
	t.Helper()
	s, err := schema.Infer(catalog.Table{Name: "offers", Records: []*catalog.Record{
		record("@id", "A1", "vendorCode", "V1", "params_json", `{"color":"red"}`),
		record("@id", "A2", "vendorCode", "V2", "price", "10"),
	}}, schema.DefaultRules())
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	return s
}

func TestSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		live        []string
		wantOutcome Outcome
		wantExecs   int
		wantMissing []string
	}{
		{name: "absent table is created", wantOutcome: Created, wantExecs: 1},
		{
			name:        "matching table is verified",
			live:        []string{"id", "_id", "vendorcode", "params_json", "price"},
			wantOutcome: Verified,
		},
		{
			name:        "extra and upper-case live columns are tolerated",
			live:        []string{"ID", "_ID", "VendorCode", "params_json", "price", "added_by_hand"},
			wantOutcome: Verified,
		},
		{
			name:        "missing columns are drift",
			live:        []string{"id", "vendorcode"},
			wantMissing: []string{"_id", "params_json", "price"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeRepo{live: tt.live}
			got, key, err := NewSynchronizer(repo, schema.DefaultRules(), nil).Sync(context.Background(), offersSchema(t))

			if tt.wantMissing != nil {
				var drift *SchemaDriftError
				if !errors.As(err, &drift) {
					t.Fatalf("err = %v, want SchemaDriftError", err)
				}
				if drift.Table != "offers" || !reflect.DeepEqual(drift.Missing, tt.wantMissing) {
					t.Fatalf("drift = %+v", drift)
				}
				if len(repo.execs) != 0 {
					t.Fatalf("drift must not execute statements: %v", repo.execs)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sync: %v", err)
			}
			if got != tt.wantOutcome || key != "vendorcode" {
				t.Fatalf("Sync = %s, %s", got, key)
			}
			if len(repo.execs) != tt.wantExecs {
				t.Fatalf("execs = %v", repo.execs)
			}
		})
	}
}

func TestSync_MissingNaturalKey(t *testing.T) {
	t.Parallel()

	s, err := schema.Infer(catalog.Table{Name: "currencies", Records: []*catalog.Record{
		record("@code", "RUR", "@rate", "1"),
	}}, schema.DefaultRules())
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	repo := &fakeRepo{}
	_, _, err = NewSynchronizer(repo, schema.DefaultRules(), nil).Sync(context.Background(), s)
	var mk *MissingNaturalKeyError
	if !errors.As(err, &mk) || mk.Table != "currencies" || mk.Expected != "_id" {
		t.Fatalf("err = %v, want MissingNaturalKeyError for _id", err)
	}
}

func TestSync_WrapsExecutorErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	tests := []struct {
		name   string
		repo   *fakeRepo
		wantOp string
	}{
		{name: "list", repo: &fakeRepo{listErr: cause}, wantOp: "list_columns"},
		{name: "create", repo: &fakeRepo{execErr: cause}, wantOp: "create_table"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := NewSynchronizer(tt.repo, schema.DefaultRules(), nil).Sync(context.Background(), offersSchema(t))
			var ee *storage.ExecutorError
			if !errors.As(err, &ee) || ee.Op != tt.wantOp || ee.Table != "offers" {
				t.Fatalf("err = %v, want ExecutorError op=%s", err, tt.wantOp)
			}
			if !errors.Is(err, cause) {
				t.Fatalf("cause lost: %v", err)
			}
		})
	}
}

func TestValues_SparseRecordsGetNil(t *testing.T) {
	t.Parallel()

	s := offersSchema(t)
	got := Values(s, record("vendorCode", "V9"))
	want := []any{nil, "V9", nil, nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Values = %#v, want %#v", got, want)
	}
}

func TestUpsertAll_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{execErr: errors.New("constraint")}
	s := offersSchema(t)
	c, err := NewUpserter(repo, nil).UpsertAll(context.Background(), s, []*catalog.Record{
		record("vendorCode", "V1"), record("vendorCode", "V2"),
	}, "vendorcode")
	if c.Upserted != 0 || repo.upserts != 1 {
		t.Fatalf("counts=%+v upserts=%d", c, repo.upserts)
	}
	var ee *storage.ExecutorError
	if !errors.As(err, &ee) || ee.Op != "upsert" {
		t.Fatalf("err = %v", err)
	}
}

func TestUpsertAll_SkipsRecordsWithoutKey(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	s := offersSchema(t)
	c, err := NewUpserter(repo, nil).UpsertAll(context.Background(), s, []*catalog.Record{
		record("@id", "A1", "vendorCode", "V1"),
		record("@id", "A2", "price", "10"),
		record("@id", "A3", "vendorCode", "V3"),
	}, "vendorcode")
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if c != (Counts{Upserted: 2, Skipped: 1}) || repo.upserts != 2 {
		t.Fatalf("counts=%+v upserts=%d", c, repo.upserts)
	}
	for _, args := range repo.args {
		if args[1] == nil {
			t.Fatalf("sent a NULL conflict value: %#v", args)
		}
	}
}

func TestUpsert_NoKeyValue(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	err := NewUpserter(repo, nil).Upsert(context.Background(), offersSchema(t), record("@id", "A2"), "vendorcode")
	if !errors.Is(err, ErrNoKeyValue) || repo.upserts != 0 {
		t.Fatalf("err=%v upserts=%d", err, repo.upserts)
	}
}

// TestSyncAndUpsert_SQLite runs the whole load twice against an in-memory
// database: the second run verifies instead of creating and leaves the same
// rows behind.
func TestSyncAndUpsert_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(repo.Close)

	s := offersSchema(t)
	recs := []*catalog.Record{
		record("@id", "A1", "vendorCode", "V1", "params_json", `{"color":"red"}`),
		record("@id", "A2", "vendorCode", "V2", "price", "10"),
	}

	for i, want := range []Outcome{Created, Verified} {
		outcome, key, err := NewSynchronizer(repo, schema.DefaultRules(), nil).Sync(ctx, s)
		if err != nil {
			t.Fatalf("run %d Sync: %v", i, err)
		}
		if outcome != want {
			t.Fatalf("run %d outcome = %s, want %s", i, outcome, want)
		}
		c, err := NewUpserter(repo, nil).UpsertAll(ctx, s, recs, key)
		if err != nil || c != (Counts{Upserted: 2}) {
			t.Fatalf("run %d UpsertAll = %+v, %v", i, c, err)
		}
	}

	cols, err := repo.ListColumns(ctx, "offers")
	if err != nil {
		t.Fatalf("ListColumns: %v", err)
	}
	if got := strings.Join(cols, ","); got != "id,_id,vendorcode,params_json,price" {
		t.Fatalf("live columns = %s", got)
	}
}
