// Package export writes a table snapshot to a flat CSV file.
//
// The file is written to a temp file in the target directory and renamed
// over the destination, so readers see either the previous export or the
// complete new one. An xxh3-128 checksum of the written bytes identifies the
// snapshot.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"cademycode/internal/table"
)

// Writer exports tables to Path.
type Writer struct {
	Path string
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Result describes one export.
type Result struct {
	Path     string
	Rows     int
	Bytes    int64
	Checksum string // xxh3-128, hex
}

// Write exports t: a header row with the column names, then one record per
// row. Missing values are empty fields.
func (w Writer) Write(t *table.Table) (Result, error) {
	if t == nil {
		return Result{}, fmt.Errorf("export: nil table")
	}
	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("export: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("export: create temp: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	res, err := Encode(tmp, t, w.Comma)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return Result{}, fmt.Errorf("export: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("export: close: %w", err)
	}
	if err := os.Rename(tmpName, w.Path); err != nil {
		return Result{}, fmt.Errorf("export: rename: %w", err)
	}
	committed = true

	res.Path = w.Path
	return res, nil
}

// Encode writes t as CSV to out and returns the row count, byte count and
// checksum. Path is left empty.
func Encode(out io.Writer, t *table.Table, comma rune) (Result, error) {
	h := xxh3.New()
	cw := &countWriter{}
	bw := bufio.NewWriter(io.MultiWriter(out, h, cw))

	w := csv.NewWriter(bw)
	if comma != 0 {
		w.Comma = comma
	}
	if err := w.Write(t.Columns); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, v := range row {
			rec[j] = FormatValue(v)
		}
		if err := w.Write(rec); err != nil {
			return Result{}, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Result{}, fmt.Errorf("flush: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return Result{}, fmt.Errorf("flush: %w", err)
	}

	sum := h.Sum128().Bytes()
	return Result{
		Rows:     t.Len(),
		Bytes:    cw.n,
		Checksum: fmt.Sprintf("%x", sum[:]),
	}, nil
}

// FormatValue renders one cell. Missing values (nil, NaN) are "".
func FormatValue(v any) string {
	if table.IsMissing(v) {
		return ""
	}
	switch x := table.Canonical(v).(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

type countWriter struct{ n int64 }

func (c *countWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
