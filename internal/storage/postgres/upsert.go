package postgres

import (
	"fmt"
	"strconv"
	"strings"

	pgddl "github.com/bayduroff/tableService/internal/storage/postgres/ddl"
)

// buildUpsertSQL renders
//
//	INSERT INTO "t" ("a", "b") VALUES ($1, $2)
//	ON CONFLICT ("a") DO UPDATE SET "b" = EXCLUDED."b"
//
// and uses DO NOTHING when there is nothing besides the conflict column.
func buildUpsertSQL(table string, columns []string, conflict string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("postgres: upsert: table must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("postgres: upsert: no columns for table %s", table)
	}

	quoted := mapIdent(columns)
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = "$" + strconv.Itoa(i+1)
	}

	var updates []string
	hasConflict := false
	for i, c := range columns {
		if c == conflict {
			hasConflict = true
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted[i], quoted[i]))
	}
	if !hasConflict {
		return "", fmt.Errorf("postgres: upsert: conflict column %q not among columns of %s", conflict, table)
	}

	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		pgddl.Ident(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
		pgddl.Ident(conflict),
		action,
	), nil
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgddl.Ident(c)
	}
	return out
}
