// Package table holds the in-memory tabular structure passed between the
// pipeline stages.
//
// A Table is row-major: Rows[i][j] is the value of column Columns[j] in row i,
// the same [][]any shape the storage backends copy in and out. Missing values
// are nil. Column names may repeat; lookups by name return the first match.
package table

import (
	"fmt"
	"math"
	"time"
)

// Table is an ordered set of named columns with rows aligned by index.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given columns.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of the first column named col.
func (t *Table) Index(col string) (int, bool) {
	for i, c := range t.Columns {
		if c == col {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether col exists.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.Index(col)
	return ok
}

// Column returns a copy of the values of col, one per row.
func (t *Table) Column(col string) ([]any, error) {
	j, ok := t.Index(col)
	if !ok {
		return nil, fmt.Errorf("table %s: column %q not found", t.Name, col)
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[j]
	}
	return out, nil
}

// Value returns the value at row i of col, and false when col is unknown.
func (t *Table) Value(i int, col string) (any, bool) {
	j, ok := t.Index(col)
	if !ok || i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[i][j], true
}

// Append adds a row. The row length must match the column count.
func (t *Table) Append(row ...any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %s: row length %d != columns length %d", t.Name, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Clone returns a copy whose column list and rows can be modified without
// affecting t. Values themselves are immutable and shared.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]any(nil), r...)
	}
	return out
}

// IsMissing reports whether v counts as a missing value: nil or a NaN float.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Canonical converts a driver value into one of the table value types:
// nil, int64, float64, string, bool, time.Time. Integer widths collapse to
// int64, float32 widens to float64 and []byte becomes string. Other values
// are returned unchanged.
func Canonical(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, string, bool, time.Time:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

// CanonicalRow applies Canonical to every value of row in place.
func CanonicalRow(row []any) []any {
	for i, v := range row {
		row[i] = Canonical(v)
	}
	return row
}
