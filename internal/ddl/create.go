package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement for t:
//
//	CREATE TABLE "schema"."table" (
//	  "col1" TYPE [NOT NULL],
//	  "col2" TYPE
//	)
//
// Each FQN segment and column name is quoted with d.QuoteIdent.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(d, name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(fqn, d),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string, d Dialect) string {
	return "DROP TABLE IF EXISTS " + QuoteFQN(fqn, d)
}

// QuoteFQN quotes each dotted segment of fqn.
func QuoteFQN(fqn string, d Dialect) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(d, p))
	}
	return strings.Join(out, ".")
}

// QuoteList quotes each name and joins them with ", ".
func QuoteList(names []string, d Dialect) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(d, n)
	}
	return strings.Join(out, ", ")
}

func quote(d Dialect, id string) string {
	if d.QuoteIdent != nil {
		return d.QuoteIdent(id)
	}
	return DoubleQuote(id)
}

// DoubleQuote is the ANSI identifier quoting used by most dialects.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
