// Package ddl defines a small, backend-agnostic model for the destination
// table and renders the statements used to replace it.
//
// Backends supply a Dialect (identifier quoting and a logical-to-SQL type
// map); everything else here is shared.
package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical type inferred from the data (int, float, bool, timestamp, text)
//   - SQLType: target SQL type after the dialect's type map
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Kind     string
	SQLType  string
	Nullable bool
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table").
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Logical kinds produced by Infer.
const (
	KindInt       = "int"
	KindFloat     = "float"
	KindBool      = "bool"
	KindTimestamp = "timestamp"
	KindText      = "text"
)

// Dialect adapts rendering to one SQL engine.
type Dialect struct {
	// QuoteIdent quotes a single identifier segment.
	QuoteIdent func(string) string
	// MapType maps a logical kind to a column type.
	MapType func(kind string) string
}
