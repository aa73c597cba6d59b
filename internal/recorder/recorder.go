// Package recorder closes a successful run: it appends the changelog entry
// and advances the run state as one unit.
package recorder

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"cademycode/internal/changelog"
	"cademycode/internal/errs"
	"cademycode/internal/state"
)

// Outcome is what a successful run reports to the recorder.
type Outcome struct {
	// RowDelta is rows(final) - rows(students); logged as "new rows added".
	RowDelta     int
	TotalMissing int
	FinalRows    int
	// Growth is rows(final) minus the previous run's row count.
	Growth   int64
	Checksum string
}

// Recorder writes the changelog and the run state.
type Recorder struct {
	State state.File
	Sink  changelog.Sink
	Clock clockwork.Clock
	// Table is the destination table named in the entry.
	Table string
	Fixed []string
	Notes []string
}

// Record stages the new state, appends the entry, then commits the state. If
// staging fails nothing is written; if the append fails the staged state is
// discarded.
func (r Recorder) Record(ctx context.Context, o Outcome) error {
	const op = "record run"

	staged, err := r.State.Prepare(int64(o.FinalRows))
	if err != nil {
		return errs.E(errs.PersistenceFailure, op, err)
	}

	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e := changelog.Entry{
		Time:         clock.Now(),
		RowsAdded:    o.RowDelta,
		TotalMissing: o.TotalMissing,
		Table:        r.Table,
		Fixed:        r.Fixed,
		Changed:      r.changed(o),
	}
	if err := r.Sink.Append(ctx, e); err != nil {
		staged.Discard()
		return errs.E(errs.PersistenceFailure, op, err)
	}
	if err := staged.Commit(); err != nil {
		return errs.E(errs.PersistenceFailure, op, err)
	}
	return nil
}

func (r Recorder) changed(o Outcome) []string {
	out := append([]string(nil), r.Notes...)
	out = append(out, fmt.Sprintf("Total rows: %d (%+d since previous run)", o.FinalRows, o.Growth))
	if o.Checksum != "" {
		out = append(out, fmt.Sprintf("Snapshot checksum (xxh3-128): %s", o.Checksum))
	}
	return out
}
