// Package keys coerces join-key columns into a canonical integer form.
//
// Keys are carried through the merge as tagged optionals (Key) so that a
// missing key never matches anything, including a real key valued 0. Only at
// the output boundary does Materialize turn them into plain values, according
// to a named Policy.
package keys

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"cademycode/internal/errs"
	"cademycode/internal/table"
)

// Key is a normalized join-key value. Valid is false when the source value
// was missing or not numeric.
type Key struct {
	Value int64
	Valid bool
}

// Of returns a valid key.
func Of(v int64) Key { return Key{Value: v, Valid: true} }

// Int64 returns the key value, or the sentinel 0 when the key is invalid.
func (k Key) Int64() int64 {
	if !k.Valid {
		return 0
	}
	return k.Value
}

func (k Key) String() string {
	if !k.Valid {
		return "NULL"
	}
	return strconv.FormatInt(k.Value, 10)
}

// Parse interprets v as a number. It never fails: anything that is not a
// finite number in int64 range yields an invalid Key. Floats are truncated
// toward zero.
func Parse(v any) Key {
	switch x := table.Canonical(v).(type) {
	case Key:
		return x
	case nil:
		return Key{}
	case int64:
		return Of(x)
	case float64:
		return fromFloat(x)
	case bool:
		if x {
			return Of(1)
		}
		return Of(0)
	case string:
		return parseString(x)
	case time.Time:
		return Key{}
	}
	return Key{}
}

func fromFloat(f float64) Key {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Key{}
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return Key{}
	}
	return Of(int64(f))
}

func parseString(s string) Key {
	s = strings.TrimSpace(fold(s))
	if s == "" {
		return Key{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Of(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Key{}
	}
	return fromFloat(f)
}

// fold maps full-width and other compatibility digits to ASCII and drops
// invisible format characters such as a leading BOM.
func fold(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(
		norm.NFKC,
		runes.Remove(runes.In(unicode.Cf)),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// NormalizeColumn returns a copy of t whose column col holds Key values.
// A missing column is a SchemaMismatch.
func NormalizeColumn(t *table.Table, col string) (*table.Table, error) {
	j, ok := t.Index(col)
	if !ok {
		return nil, errs.Errorf(errs.SchemaMismatch, "normalize "+t.Name, "key column %q not found", col)
	}
	out := t.Clone()
	for _, r := range out.Rows {
		r[j] = Parse(r[j])
	}
	return out, nil
}

// Check returns the index of col and verifies that every value in it is a
// Key, i.e. the column went through NormalizeColumn.
func Check(t *table.Table, col string) (int, error) {
	if t == nil {
		return -1, errs.Errorf(errs.SchemaMismatch, "check key", "table is absent")
	}
	j, ok := t.Index(col)
	if !ok {
		return -1, errs.Errorf(errs.SchemaMismatch, "check key "+t.Name, "key column %q not found", col)
	}
	for i, r := range t.Rows {
		if _, ok := r[j].(Key); !ok {
			return -1, errs.Errorf(errs.SchemaMismatch, "check key "+t.Name,
				"key column %q row %d holds %T, want a normalized key", col, i, r[j])
		}
	}
	return j, nil
}

// Policy decides how invalid keys are written out.
type Policy int

const (
	// PolicyZero writes invalid keys as the sentinel 0.
	PolicyZero Policy = iota
	// PolicyNull writes invalid keys as NULL.
	PolicyNull
)

func (p Policy) String() string {
	if p == PolicyNull {
		return "null"
	}
	return "zero"
}

// ParsePolicy accepts "zero" (or "") and "null".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return PolicyZero, nil
	case "null":
		return PolicyNull, nil
	}
	return PolicyZero, fmt.Errorf("unknown missing-key policy %q (want zero or null)", s)
}

// Materialize returns a copy of t with every Key replaced by an int64, or by
// 0 / nil for invalid keys depending on p.
func Materialize(t *table.Table, p Policy) *table.Table {
	out := t.Clone()
	for _, r := range out.Rows {
		for j, v := range r {
			k, ok := v.(Key)
			if !ok {
				continue
			}
			switch {
			case k.Valid:
				r[j] = k.Value
			case p == PolicyNull:
				r[j] = nil
			default:
				r[j] = int64(0)
			}
		}
	}
	return out
}
