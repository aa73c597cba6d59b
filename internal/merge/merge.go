// Package merge implements the left-outer joins that build the denormalized
// table.
//
// Joins are hash joins on normalized key columns (keys.Key). Left row order is
// preserved; each left row is emitted once per matching right row in right
// table order, or once with nil right-side columns when nothing matches. An
// invalid (missing) key never matches.
package merge

import (
	"cademycode/internal/errs"
	"cademycode/internal/keys"
	"cademycode/internal/table"
)

// LeftJoin returns left LEFT JOIN right ON left.leftKey = right.rightKey.
//
// Output columns are the left columns followed by the right columns. When
// both key columns share a name the right one is dropped; every other name
// collision is kept as-is. Both key columns must exist and be normalized,
// which is checked before any row is joined.
func LeftJoin(left, right *table.Table, leftKey, rightKey string) (*table.Table, error) {
	if left == nil || right == nil {
		return nil, errs.Errorf(errs.SchemaMismatch, "left join", "input table is absent")
	}
	li, err := keys.Check(left, leftKey)
	if err != nil {
		return nil, err
	}
	ri, err := keys.Check(right, rightKey)
	if err != nil {
		return nil, err
	}

	// Right columns carried into the output.
	keep := make([]int, 0, len(right.Columns))
	for j := range right.Columns {
		if j == ri && leftKey == rightKey {
			continue
		}
		keep = append(keep, j)
	}

	cols := make([]string, 0, len(left.Columns)+len(keep))
	cols = append(cols, left.Columns...)
	for _, j := range keep {
		cols = append(cols, right.Columns[j])
	}

	index := make(map[int64][]int, len(right.Rows))
	for i, r := range right.Rows {
		k := r[ri].(keys.Key)
		if !k.Valid {
			continue
		}
		index[k.Value] = append(index[k.Value], i)
	}

	out := &table.Table{
		Name:    left.Name,
		Columns: cols,
		Rows:    make([][]any, 0, len(left.Rows)),
	}
	for _, lr := range left.Rows {
		var matches []int
		if k := lr[li].(keys.Key); k.Valid {
			matches = index[k.Value]
		}
		if len(matches) == 0 {
			row := make([]any, len(cols))
			copy(row, lr)
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, m := range matches {
			row := make([]any, len(cols))
			n := copy(row, lr)
			for o, j := range keep {
				row[n+o] = right.Rows[m][j]
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
