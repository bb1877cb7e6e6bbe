package ddl

// ColumnDef is one inferred column. Name is unquoted; quoting happens at
// render time according to the Style.
type ColumnDef struct {
	Name    string
	SQLType string // e.g. TEXT, VARCHAR(255) UNIQUE
}

// TableDef is a table name plus its ordered columns. The surrogate key is not
// part of Columns; every Style prepends its own.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// Style captures the dialect differences of a CREATE TABLE statement.
type Style struct {
	// SurrogateKey is the full clause of the leading server-generated key,
	// e.g. "id SERIAL PRIMARY KEY".
	SurrogateKey string

	// Quote quotes table and column identifiers. Nil emits them verbatim.
	Quote func(string) string

	// TypeOf maps a canonical column type to the dialect's type. Nil keeps
	// the canonical type.
	TypeOf func(string) string

	// IfNotExists adds IF NOT EXISTS after CREATE TABLE.
	IfNotExists bool
}

// Canonical is the reference rendering returned to users describing a table.
var Canonical = Style{
	SurrogateKey: "id SERIAL PRIMARY KEY",
	IfNotExists:  true,
}

func (s Style) typeOf(t string) string {
	if s.TypeOf == nil {
		return t
	}
	return s.TypeOf(t)
}

func (s Style) quote(id string) string {
	if s.Quote == nil {
		return id
	}
	return s.Quote(id)
}
