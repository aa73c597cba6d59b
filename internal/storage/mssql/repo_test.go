package mssql

import (
	"context"
	"strings"
	"testing"

	"cademycode/internal/ddl"
	"cademycode/internal/storage"
	"cademycode/internal/storage/sqldb"
)

func TestBracketQuoting(t *testing.T) {
	t.Parallel()

	if got := ddl.QuoteFQN("dbo.a]b", Dialect.DDL); got != "[dbo].[a]]b]" {
		t.Fatalf("QuoteFQN = %q", got)
	}
	got := sqldb.InsertSQL("dbo.t", []string{"a", "b"}, Dialect)
	if want := "INSERT INTO [dbo].[t] ([a], [b]) VALUES (@p1, @p2)"; got != want {
		t.Fatalf("InsertSQL = %q, want %q", got, want)
	}
}

func TestCopyInTargetsTable(t *testing.T) {
	t.Parallel()

	got := Dialect.CopyIn("cademycode_final", []string{"uuid"})
	if !strings.Contains(got, "cademycode_final") || !strings.Contains(got, "uuid") {
		t.Fatalf("CopyIn = %q, want table and column names", got)
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"int": "BIGINT", "bool": "BIT", "float": "FLOAT",
		"timestamp": "DATETIME2", "text": "NVARCHAR(MAX)",
	}
	for in, want := range cases {
		if got := MapType(in); got != want {
			t.Errorf("MapType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotDSN string
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotDSN = cfg.DSN
		return &Repository{}, func() {}, nil
	}

	dsn := "sqlserver://sa:pw@localhost:1433?database=cademycode"
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mssql", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer repo.Close()
	if gotDSN != dsn {
		t.Fatalf("hook DSN = %q, want %q", gotDSN, dsn)
	}
}
