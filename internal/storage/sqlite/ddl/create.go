// Package ddl renders SQLite CREATE TABLE statements for catalog tables:
// double-quoted identifiers and an INTEGER AUTOINCREMENT surrogate key.
package ddl

import (
	"strings"

	gddl "github.com/bayduroff/tableService/internal/ddl"
)

// Style is the SQLite rendering of the canonical statement.
var Style = gddl.Style{
	SurrogateKey: `"id" INTEGER PRIMARY KEY AUTOINCREMENT`,
	Quote:        QuoteIdent,
	IfNotExists:  true,
}

// BuildCreateTableSQL returns:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
//	    "col" TYPE,
//	    ...
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Style)
}

// QuoteIdent double-quotes id, doubling embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
