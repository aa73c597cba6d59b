// Package state persists the row count of the last successful run.
//
// The file holds a single decimal integer. A missing file means 0, so the
// first run sees every row as new. Writes are two-phase: Prepare stages the
// value in a temp file next to the target, Commit renames it into place.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File is the run-state file at Path.
type File struct {
	Path string
}

// Load returns the stored row count, or 0 when the file does not exist.
func (f File) Load() (int64, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("state: read %s: %w", f.Path, err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("state: parse %s: %w", f.Path, err)
	}
	return n, nil
}

// Staged is a prepared, not yet visible, state update.
type Staged struct {
	tmp    string
	target string
	done   bool
}

// Prepare writes rows to a temp file beside Path.
func (f File) Prepare(rows int64) (*Staged, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("state: create temp: %w", err)
	}
	if _, err := tmp.WriteString(strconv.FormatInt(rows, 10)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("state: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("state: close temp: %w", err)
	}
	return &Staged{tmp: tmp.Name(), target: f.Path}, nil
}

// Commit makes the staged value the current state.
func (s *Staged) Commit() error {
	if s.done {
		return fmt.Errorf("state: staged update already finished")
	}
	s.done = true
	if err := os.Rename(s.tmp, s.target); err != nil {
		_ = os.Remove(s.tmp)
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// Discard drops the staged value. It is a no-op after Commit.
func (s *Staged) Discard() {
	if s.done {
		return
	}
	s.done = true
	_ = os.Remove(s.tmp)
}
