package postgres

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgtype"

	"cademycode/internal/ddl"
	"cademycode/internal/storage"
	"cademycode/internal/table"
)

func TestCreateSQLUsesPostgresTypes(t *testing.T) {
	t.Parallel()

	tb := table.New("final", "uuid", "salary", "active", "name")
	_ = tb.Append(int64(1), 1.5, true, `x"y`)

	td, err := ddl.Infer(tb, "public.cademycode_final", Dialect)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	got, err := ddl.BuildCreateTableSQL(td, Dialect)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"public\".\"cademycode_final\" (\n" +
		"  \"uuid\" BIGINT,\n  \"salary\" DOUBLE PRECISION,\n  \"active\" BOOLEAN,\n  \"name\" TEXT\n)"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCopyRowsNullsMissingFloats(t *testing.T) {
	t.Parallel()

	tb := table.New("t", "a", "b")
	_ = tb.Append(math.NaN(), "x")
	_ = tb.Append(2.5, nil)

	got := copyRows(tb)
	want := [][]any{{nil, "x"}, {2.5, nil}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("copyRows mismatch (-want +got):\n%s", diff)
	}
	if !math.IsNaN(tb.Rows[0][0].(float64)) {
		t.Fatalf("copyRows mutated its input")
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	num := pgtype.Numeric{Int: big.NewInt(125), Exp: -1, Valid: true}
	if got := canonical(num); got != 12.5 {
		t.Fatalf("canonical(numeric) = %v, want 12.5", got)
	}
	if got := canonical(pgtype.Numeric{}); got != nil {
		t.Fatalf("canonical(null numeric) = %v, want nil", got)
	}
	id := [16]byte{0x12, 0x34}
	if got := canonical(id); got != "12340000-0000-0000-0000-000000000000" {
		t.Fatalf("canonical(uuid) = %v", got)
	}
	if got := canonical(int32(4)); got != int64(4) {
		t.Fatalf("canonical(int32) = %#v, want int64(4)", got)
	}
}

func TestStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		gotDSN string
		closed bool
		fake   = &Repository{}
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotDSN = cfg.DSN
		return fake, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://u@h/db"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotDSN != "postgres://u@h/db" {
		t.Errorf("hook DSN = %q", gotDSN)
	}
	if w, ok := repo.(*wrappedRepo); !ok || w.Repository != fake {
		t.Fatalf("storage.New() = %T, want *wrappedRepo around fake", repo)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not invoke closeFn")
	}
}
