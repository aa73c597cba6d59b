package table

import (
	"math"
	"testing"
	"time"
)

func TestColumnAndValue(t *testing.T) {
	t.Parallel()

	tb := New("students", "id", "job_id")
	if err := tb.Append(int64(1), "5"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tb.Append(int64(2), nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tb.Append(int64(3)); err == nil {
		t.Fatalf("Append with short row: want error")
	}

	col, err := tb.Column("job_id")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if len(col) != 2 || col[0] != "5" || col[1] != nil {
		t.Fatalf("Column(job_id) = %#v", col)
	}
	if _, err := tb.Column("nope"); err == nil {
		t.Fatalf("Column(nope): want error")
	}

	v, ok := tb.Value(0, "id")
	if !ok || v != int64(1) {
		t.Fatalf("Value(0,id) = %v,%v", v, ok)
	}
	if _, ok := tb.Value(5, "id"); ok {
		t.Fatalf("Value out of range reported ok")
	}
}

func TestIndexReturnsFirstDuplicate(t *testing.T) {
	t.Parallel()

	tb := New("t", "a", "name", "name")
	if j, ok := tb.Index("name"); !ok || j != 1 {
		t.Fatalf("Index(name) = %d,%v; want 1,true", j, ok)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	tb := New("t", "a")
	_ = tb.Append("x")
	c := tb.Clone()
	c.Rows[0][0] = "y"
	c.Columns[0] = "b"

	if tb.Rows[0][0] != "x" || tb.Columns[0] != "a" {
		t.Fatalf("Clone shares storage with original: %#v", tb)
	}
}

func TestIsMissing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{math.NaN(), true},
		{float32(math.NaN()), true},
		{"", false},
		{int64(0), false},
		{1.5, false},
	}
	for _, c := range cases {
		if got := IsMissing(c.v); got != c.want {
			t.Errorf("IsMissing(%#v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	s := "txt"
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		in   any
		want any
	}{
		{int(7), int64(7)},
		{int32(-3), int64(-3)},
		{uint16(9), int64(9)},
		{float32(1.5), float64(1.5)},
		{[]byte("abc"), "abc"},
		{&s, "txt"},
		{(*string)(nil), nil},
		{now, now},
		{true, true},
		{nil, nil},
	}
	for _, c := range cases {
		if got := Canonical(c.in); got != c.want {
			t.Errorf("Canonical(%#v) = %#v, want %#v", c.in, got, c.want)
		}
	}
}
