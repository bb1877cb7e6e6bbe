// Package ddl contains Postgres-specific helpers for generating DDL.
//
// Postgres folds unquoted identifiers to lower case, so every identifier is
// lowered before quoting. The rendered table is then the same one that
// information_schema reports under its lower-case name.
package ddl

import (
	"strings"

	gddl "github.com/bayduroff/tableService/internal/ddl"
)

// Style is the Postgres rendering of the canonical statement.
var Style = gddl.Style{
	SurrogateKey: `"id" SERIAL PRIMARY KEY`,
	Quote:        Ident,
	IfNotExists:  true,
}

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Style)
}

// Ident lowers id and quotes it as a single identifier segment.
func Ident(id string) string {
	return quoteIdent(strings.ToLower(id))
}

// quoteIdent safely quotes a single identifier segment for Postgres.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
