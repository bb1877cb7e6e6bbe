// Package ddl renders MySQL CREATE TABLE statements for catalog tables.
package ddl

import (
	"strings"

	gddl "github.com/bayduroff/tableService/internal/ddl"
)

// Style is the MySQL rendering of the canonical statement. SERIAL is an alias
// for BIGINT UNSIGNED NOT NULL AUTO_INCREMENT UNIQUE.
var Style = gddl.Style{
	SurrogateKey: "`id` SERIAL PRIMARY KEY",
	Quote:        QuoteIdent,
	IfNotExists:  true,
}

// BuildCreateTableSQL returns:
//
//	CREATE TABLE IF NOT EXISTS `table` (
//	    `id` SERIAL PRIMARY KEY,
//	    `col` TYPE,
//	    ...
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.Render(t, Style)
}

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
