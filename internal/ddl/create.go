// Package ddl renders CREATE TABLE statements for inferred catalog tables.
//
// The canonical form is fixed:
//
//	CREATE TABLE IF NOT EXISTS <name> (
//	    id SERIAL PRIMARY KEY,
//	    <col> <TYPE>,
//	    ...
//	);
//
// Backends (internal/storage/<kind>/ddl) render the same shape with their own
// surrogate key clause and identifier quoting.
package ddl

import (
	"fmt"
	"strings"
)

const indent = "    "

// BuildCreateTableSQL renders t in the Canonical style.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return Render(t, Canonical)
}

// Render renders t with the given style. Columns keep their order; the
// surrogate key always comes first and the last line has no trailing comma.
func Render(t TableDef, s Style) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if strings.TrimSpace(s.SurrogateKey) == "" {
		return "", fmt.Errorf("ddl: surrogate key clause must not be empty")
	}

	lines := make([]string, 0, len(t.Columns)+1)
	lines = append(lines, indent+s.SurrogateKey)
	for _, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", c.Name)
		}
		lines = append(lines, indent+s.quote(c.Name)+" "+s.typeOf(typ))
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if s.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(s.quote(name))
	sb.WriteString(" (\n")
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n);")
	return sb.String(), nil
}
