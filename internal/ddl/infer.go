package ddl

import (
	"fmt"
	"strings"
	"time"

	"cademycode/internal/table"
)

// Infer builds a TableDef for t. Each column's kind is the narrowest logical
// type that fits all of its non-missing values; int and float mix to float,
// anything else mixed or unknown becomes text. All columns are nullable.
//
// Duplicate column names cannot be created in SQL and are rejected.
func Infer(t *table.Table, fqn string, d Dialect) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("ddl: table FQN must not be empty")
	}
	seen := make(map[string]struct{}, len(t.Columns))
	defs := make([]ColumnDef, len(t.Columns))
	for j, name := range t.Columns {
		if _, dup := seen[name]; dup {
			return TableDef{}, fmt.Errorf("ddl: duplicate column %q in %s; rename it upstream", name, fqn)
		}
		seen[name] = struct{}{}

		kind := columnKind(t, j)
		sqlType := kind
		if d.MapType != nil {
			sqlType = d.MapType(kind)
		}
		defs[j] = ColumnDef{Name: name, Kind: kind, SQLType: sqlType, Nullable: true}
	}
	return TableDef{FQN: fqn, Columns: defs}, nil
}

func columnKind(t *table.Table, j int) string {
	kind := ""
	for _, r := range t.Rows {
		v := r[j]
		if table.IsMissing(v) {
			continue
		}
		k := valueKind(v)
		switch {
		case kind == "":
			kind = k
		case kind == k:
		case (kind == KindInt && k == KindFloat) || (kind == KindFloat && k == KindInt):
			kind = KindFloat
		default:
			return KindText
		}
	}
	if kind == "" {
		return KindText
	}
	return kind
}

func valueKind(v any) string {
	switch v.(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time:
		return KindTimestamp
	}
	return KindText
}
