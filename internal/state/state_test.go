package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsZero(t *testing.T) {
	t.Parallel()

	n, err := File{Path: filepath.Join(t.TempDir(), "previous_row_count.txt")}.Load()
	if err != nil || n != 0 {
		t.Fatalf("Load() = %d, %v; want 0, nil", n, err)
	}
}

func TestPrepareCommit(t *testing.T) {
	t.Parallel()

	f := File{Path: filepath.Join(t.TempDir(), "dev", "previous_row_count.txt")}
	st, err := f.Prepare(5000)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if n, _ := f.Load(); n != 0 {
		t.Fatalf("staged value visible before Commit: %d", n)
	}
	if err := st.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if n, err := f.Load(); err != nil || n != 5000 {
		t.Fatalf("Load() = %d, %v; want 5000, nil", n, err)
	}
	if err := st.Commit(); err == nil {
		t.Fatalf("second Commit: want error")
	}
	st.Discard()
	if n, _ := f.Load(); n != 5000 {
		t.Fatalf("Discard after Commit changed state: %d", n)
	}
}

func TestDiscardLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := File{Path: filepath.Join(dir, "previous_row_count.txt")}
	if err := os.WriteFile(f.Path, []byte("12\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	st, err := f.Prepare(99)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	st.Discard()

	if n, err := f.Load(); err != nil || n != 12 {
		t.Fatalf("Load() = %d, %v; want 12, nil", n, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %d entries", len(entries))
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := (File{Path: path}).Load(); err == nil {
		t.Fatalf("Load of non-numeric state: want error")
	}
}
