// Package schema infers an ordered, typed column set from a catalog table and
// decides which column acts as the table's natural (conflict) key.
package schema

import (
	"fmt"
	"strings"

	"github.com/bayduroff/tableService/internal/catalog"
)

// Column types.
const (
	TypeText      = "TEXT"
	TypeNaturalID = "VARCHAR(255) UNIQUE"
)

// MatchMode controls how the vendor-code column of the keyed table is found.
type MatchMode string

const (
	// MatchExact requires the column to equal ColumnName(VendorCodeKey).
	MatchExact MatchMode = "exact"
	// MatchSubstring accepts the first column containing "vendorcode" or
	// "vendor_code".
	MatchSubstring MatchMode = "substring"
)

// Rules name the natural key of each table.
type Rules struct {
	// KeyedTable is keyed by vendor code; compared case-insensitively.
	KeyedTable string
	// VendorCodeKey is the raw key holding the vendor code.
	VendorCodeKey string
	// IDColumn keys every other table.
	IDColumn string
	// VendorCodeMatch selects exact (default) or substring matching.
	VendorCodeMatch MatchMode
}

// DefaultRules returns the rules for YML-style feeds.
func DefaultRules() Rules {
	return Rules{
		KeyedTable:      "offers",
		VendorCodeKey:   "vendorCode",
		IDColumn:        "_id",
		VendorCodeMatch: MatchExact,
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.KeyedTable == "" {
		r.KeyedTable = d.KeyedTable
	}
	if r.VendorCodeKey == "" {
		r.VendorCodeKey = d.VendorCodeKey
	}
	if r.IDColumn == "" {
		r.IDColumn = d.IDColumn
	}
	if r.VendorCodeMatch == "" {
		r.VendorCodeMatch = d.VendorCodeMatch
	}
	return r
}

// Validate reports unknown match modes.
func (r Rules) Validate() error {
	switch r.VendorCodeMatch {
	case "", MatchExact, MatchSubstring:
		return nil
	default:
		return fmt.Errorf("schema: unknown vendor code match mode %q", r.VendorCodeMatch)
	}
}

// IsKeyed reports whether table is keyed by vendor code.
func (r Rules) IsKeyed(table string) bool {
	return strings.EqualFold(table, r.withDefaults().KeyedTable)
}

// ExpectedKey describes the natural key a table should have, for messages.
func (r Rules) ExpectedKey(table string) string {
	r = r.withDefaults()
	if r.IsKeyed(table) {
		return catalog.ColumnName(r.VendorCodeKey)
	}
	return r.IDColumn
}

// isKeyCandidate reports whether column may serve as table's natural key.
func (r Rules) isKeyCandidate(table, column string) bool {
	if !r.IsKeyed(table) {
		return column == r.IDColumn
	}
	if column == catalog.ColumnName(r.VendorCodeKey) {
		return true
	}
	return r.VendorCodeMatch == MatchSubstring &&
		(strings.Contains(column, "vendorcode") || strings.Contains(column, "vendor_code"))
}
