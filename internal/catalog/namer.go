// Package catalog turns a feed document into flat tables of ordered records:
// one table per non-empty collection under the shop element, one record per
// collection item.
package catalog

import "strings"

var columnReplacer = strings.NewReplacer("@", "_", ".", "_")

// ColumnName maps a raw record key to its SQL column name: '@' and '.' become
// '_' and the result is lower-cased. ColumnName(ColumnName(k)) == ColumnName(k).
func ColumnName(raw string) string {
	return strings.ToLower(columnReplacer.Replace(raw))
}
