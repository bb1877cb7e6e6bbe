package sqlite

import (
	"fmt"
	"strings"

	sqliteddl "github.com/bayduroff/tableService/internal/storage/sqlite/ddl"
)

// buildUpsertSQL renders
//
//	INSERT INTO "t" ("a", "b") VALUES (?, ?)
//	ON CONFLICT ("a") DO UPDATE SET "b" = excluded."b"
//
// falling back to DO NOTHING when the conflict column is the only column.
func buildUpsertSQL(table string, columns []string, conflict string) (string, error) {
	if table == "" {
		return "", fmt.Errorf("sqlite: upsert: table must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("sqlite: upsert: no columns for table %s", table)
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	var sets []string
	hasConflict := false
	for i, c := range columns {
		q := sqliteddl.QuoteIdent(c)
		quoted[i] = q
		marks[i] = "?"
		if c == conflict {
			hasConflict = true
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", q, q))
	}
	if !hasConflict {
		return "", fmt.Errorf("sqlite: upsert: conflict column %q not among columns of %s", conflict, table)
	}

	action := "DO NOTHING"
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		sqliteddl.QuoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(marks, ", "),
		sqliteddl.QuoteIdent(conflict),
		action,
	), nil
}
