package schema

import (
	"fmt"

	"github.com/bayduroff/tableService/internal/catalog"
	"github.com/bayduroff/tableService/internal/ddl"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// EmptyTableError is returned when a schema is requested for a table with no
// records.
type EmptyTableError struct {
	Table string
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("schema: table %q has no records, cannot determine columns", e.Table)
}

// Column is one inferred column.
type Column struct {
	Name string
	Type string
	// RawKey is the first record key that normalized to Name; upserts read
	// values through it.
	RawKey string
}

// Schema is the ordered column set of one table.
type Schema struct {
	Table   string
	Columns []Column
	// Key is the natural key column, or "" when the table has none.
	Key string
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the schema contains column name.
func (s Schema) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// TableDef converts the schema into a DDL model.
func (s Schema) TableDef() ddl.TableDef {
	cols := make([]ddl.ColumnDef, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = ddl.ColumnDef{Name: c.Name, SQLType: c.Type}
	}
	return ddl.TableDef{Name: s.Table, Columns: cols}
}

// Infer walks the records top to bottom and their keys left to right,
// registering each normalized column the first time it is seen. Every column
// is TEXT except the natural key, which is VARCHAR(255) UNIQUE.
func Infer(t catalog.Table, rules Rules) (Schema, error) {
	if len(t.Records) == 0 {
		return Schema{}, &EmptyTableError{Table: t.Name}
	}
	rules = rules.withDefaults()

	cols := orderedmap.New[string, string]() // column -> first raw key
	for _, rec := range t.Records {
		for _, raw := range rec.Keys() {
			name := catalog.ColumnName(raw)
			if _, seen := cols.Get(name); !seen {
				cols.Set(name, raw)
			}
		}
	}

	s := Schema{Table: t.Name, Columns: make([]Column, 0, cols.Len())}
	for p := cols.Oldest(); p != nil; p = p.Next() {
		s.Columns = append(s.Columns, Column{Name: p.Key, Type: TypeText, RawKey: p.Value})
	}

	s.Key = naturalKey(s, rules)
	for i := range s.Columns {
		if s.Columns[i].Name == s.Key {
			s.Columns[i].Type = TypeNaturalID
		}
	}
	return s, nil
}

// naturalKey prefers an exact match and falls back to the first candidate
// allowed by the rules.
func naturalKey(s Schema, rules Rules) string {
	exact := rules.ExpectedKey(s.Table)
	if s.Has(exact) {
		return exact
	}
	for _, c := range s.Columns {
		if rules.isKeyCandidate(s.Table, c.Name) {
			return c.Name
		}
	}
	return ""
}
