package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"cademycode/internal/changelog"
	"cademycode/internal/errs"
	"cademycode/internal/state"
)

func newRecorder(t *testing.T, sink changelog.Sink) (Recorder, state.File) {
	t.Helper()
	st := state.File{Path: filepath.Join(t.TempDir(), "previous_row_count.txt")}
	return Recorder{
		State: st,
		Sink:  sink,
		Clock: clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Table: "cademycode_final_local",
		Fixed: []string{"Normalized join keys"},
	}, st
}

func TestRecordWritesEntryAndState(t *testing.T) {
	t.Parallel()

	sink := &changelog.MemorySink{}
	r, st := newRecorder(t, sink)

	o := Outcome{RowDelta: 0, TotalMissing: 4, FinalRows: 3, Growth: 3, Checksum: "ff"}
	if err := r.Record(context.Background(), o); err != nil {
		t.Fatalf("Record: %v", err)
	}

	want := []changelog.Entry{{
		Time:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		RowsAdded:    0,
		TotalMissing: 4,
		Table:        "cademycode_final_local",
		Fixed:        []string{"Normalized join keys"},
		Changed: []string{
			"Total rows: 3 (+3 since previous run)",
			"Snapshot checksum (xxh3-128): ff",
		},
	}}
	if diff := cmp.Diff(want, sink.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if n, err := st.Load(); err != nil || n != 3 {
		t.Fatalf("state = %d, %v; want 3, nil", n, err)
	}
}

func TestRecordAppendFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	sink := &changelog.MemorySink{Err: errors.New("disk full")}
	r, st := newRecorder(t, sink)
	if err := os.WriteFile(st.Path, []byte("10"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := r.Record(context.Background(), Outcome{FinalRows: 12})
	if !errors.Is(err, errs.ErrPersistenceFailure) {
		t.Fatalf("Record error = %v, want PersistenceFailure", err)
	}
	if n, _ := st.Load(); n != 10 {
		t.Fatalf("state = %d after failed append, want 10", n)
	}
	entries, _ := os.ReadDir(filepath.Dir(st.Path))
	if len(entries) != 1 {
		t.Fatalf("staged temp file left behind: %d entries", len(entries))
	}
}

func TestRecordStagingFailureWritesNothing(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	sink := &changelog.MemorySink{}
	r := Recorder{State: state.File{Path: filepath.Join(blocker, "state.txt")}, Sink: sink}

	if err := r.Record(context.Background(), Outcome{FinalRows: 1}); !errors.Is(err, errs.ErrPersistenceFailure) {
		t.Fatalf("Record error = %v, want PersistenceFailure", err)
	}
	if len(sink.Entries()) != 0 {
		t.Fatalf("entry appended despite staging failure")
	}
}
