// Package changelog records one audit entry per successful pipeline run.
//
// Entries are append-only. FileSink writes the markdown layout below;
// MemorySink keeps entries in memory for tests.
//
//	## [2024-05-01 12:00:00]
//	### Added
//	- New rows added: 0
//	- Missing data counts: 17
//	### Fixed
//	- ...
//	### Changed
//	- Combined tables into `cademycode_final_local`
package changelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TimeLayout is the timestamp format of an entry heading.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is one immutable changelog record.
type Entry struct {
	Time         time.Time
	RowsAdded    int
	TotalMissing int
	// Table is the destination table the run wrote.
	Table   string
	Fixed   []string
	Changed []string
}

// Format renders e as a markdown block followed by a blank line.
func (e Entry) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s]\n", e.Time.Format(TimeLayout))
	b.WriteString("### Added\n")
	fmt.Fprintf(&b, "- New rows added: %d\n", e.RowsAdded)
	fmt.Fprintf(&b, "- Missing data counts: %d\n", e.TotalMissing)
	b.WriteString("### Fixed\n")
	for _, n := range e.Fixed {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	b.WriteString("### Changed\n")
	fmt.Fprintf(&b, "- Combined tables into `%s`\n", e.Table)
	for _, n := range e.Changed {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	b.WriteString("\n")
	return b.String()
}

// Sink appends entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
}

// FileSink appends entries to the file at Path, creating it if needed.
type FileSink struct {
	Path string
}

// Append writes e with a single write call in append mode.
func (s FileSink) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("changelog: create dir: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("changelog: open %s: %w", s.Path, err)
	}
	if _, err := f.WriteString(e.Format()); err != nil {
		_ = f.Close()
		return fmt.Errorf("changelog: append: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("changelog: close: %w", err)
	}
	return nil
}

// MemorySink collects entries in memory.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
	// Err, when set, is returned by Append instead of recording.
	Err error
}

// Append records e.
func (s *MemorySink) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.entries = append(s.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}
