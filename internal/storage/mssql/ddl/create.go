// Package ddl provides MSSQL-specific helpers for generating CREATE TABLE
// statements from the generic ddl.TableDef model.
//
// The builder here:
//   - Uses SQL Server-style identifier quoting: [table], [col].
//   - Wraps CREATE TABLE in an IF OBJECT_ID(...) IS NULL guard since T-SQL
//     does not support CREATE TABLE IF NOT EXISTS.
//   - Maps the canonical TEXT and VARCHAR types onto their Unicode NVARCHAR
//     counterparts.
package ddl

import (
	"fmt"
	"strings"

	gddl "github.com/bayduroff/tableService/internal/ddl"
)

// Style is the inner CREATE TABLE rendering; BuildCreateTableSQL adds the
// existence guard around it.
var Style = gddl.Style{
	SurrogateKey: "[id] INT IDENTITY(1,1) PRIMARY KEY",
	Quote:        QuoteIdent,
	TypeOf:       MapType,
}

// BuildCreateTableSQL returns a T-SQL script that creates the table if it
// does not already exist:
//
//	IF OBJECT_ID(N'[table]', N'U') IS NULL
//	BEGIN
//	CREATE TABLE [table] (
//	    [id] INT IDENTITY(1,1) PRIMARY KEY,
//	    [col] NVARCHAR(MAX),
//	    ...
//	);
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	inner, err := gddl.Render(t, Style)
	if err != nil {
		return "", fmt.Errorf("mssql ddl: %w", err)
	}
	name := QuoteIdent(strings.TrimSpace(t.Name))
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND;",
		strings.ReplaceAll(name, "'", "''"),
		inner,
	), nil
}

// MapType maps a canonical column type into a SQL Server column type.
//
//	TEXT                -> NVARCHAR(MAX)
//	VARCHAR(n) [UNIQUE] -> NVARCHAR(n) [UNIQUE]
//
// Anything else is returned unchanged.
func MapType(kind string) string {
	k := strings.TrimSpace(kind)
	upper := strings.ToUpper(k)
	switch {
	case upper == "TEXT":
		return "NVARCHAR(MAX)"
	case strings.HasPrefix(upper, "VARCHAR("):
		return "N" + k
	default:
		return k
	}
}

// QuoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
