package pq

import (
	"context"
	"testing"

	"cademycode/internal/storage"
	"cademycode/internal/storage/sqldb"
)

func TestCopyInStatement(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fqn  string
		want string
	}{
		{"cademycode_final", `COPY "cademycode_final" ("uuid", "name") FROM STDIN`},
		{"public.cademycode_final", `COPY "public"."cademycode_final" ("uuid", "name") FROM STDIN`},
	}
	for _, tc := range cases {
		if got := copyIn(tc.fqn, []string{"uuid", "name"}); got != tc.want {
			t.Errorf("copyIn(%q) = %q, want %q", tc.fqn, got, tc.want)
		}
	}
}

func TestInsertSQLUsesDollarPlaceholders(t *testing.T) {
	t.Parallel()

	got := sqldb.InsertSQL("public.t", []string{"a", "b"}, Dialect)
	want := `INSERT INTO "public"."t" ("a", "b") VALUES ($1, $2)`
	if got != want {
		t.Fatalf("InsertSQL = %q, want %q", got, want)
	}
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "postgres://%zz"}); err == nil {
		t.Fatalf("NewRepository with malformed DSN: want error")
	}
}

func TestStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "pq", DSN: "postgres://u@h/db"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if _, ok := repo.(*wrappedRepo); !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not invoke closeFn")
	}
}
