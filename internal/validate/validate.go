// Package validate computes post-merge diagnostics. It reports; it never
// rejects data.
package validate

import (
	"fmt"
	"strings"

	"cademycode/internal/table"
)

// ColumnCount is the number of missing values in one column.
type ColumnCount struct {
	Column  string
	Missing int
}

// Report summarizes a merged table against its pre-merge baseline and the
// previous run.
type Report struct {
	BaselineRows int
	FinalRows    int
	// RowDelta is rows(final) - rows(baseline). Non-zero means a right-side
	// key was not unique and rows fanned out.
	RowDelta int
	// MissingCounts holds one entry per final column, in column order.
	MissingCounts []ColumnCount
	TotalMissing  int

	PreviousRows int64
	// Growth is rows(final) - PreviousRows.
	Growth int64
}

// FanOut reports whether the join produced more rows than the baseline.
func (r Report) FanOut() bool { return r.RowDelta != 0 }

// Shrunk reports whether the table has fewer rows than after the previous run.
func (r Report) Shrunk() bool { return r.Growth < 0 }

// Compute builds a Report. It is pure.
func Compute(baseline, final *table.Table, previousRows int64) Report {
	r := Report{
		BaselineRows:  baseline.Len(),
		FinalRows:     final.Len(),
		MissingCounts: make([]ColumnCount, len(final.Columns)),
		PreviousRows:  previousRows,
	}
	r.RowDelta = r.FinalRows - r.BaselineRows
	r.Growth = int64(r.FinalRows) - previousRows

	for j, c := range final.Columns {
		r.MissingCounts[j].Column = c
	}
	for _, row := range final.Rows {
		for j, v := range row {
			if table.IsMissing(v) {
				r.MissingCounts[j].Missing++
				r.TotalMissing++
			}
		}
	}
	return r
}

// MissingSummary renders the non-zero missing counts as "col=n, col=n".
func (r Report) MissingSummary() string {
	var parts []string
	for _, c := range r.MissingCounts {
		if c.Missing > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", c.Column, c.Missing))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
