package snowflake

import (
	"context"
	"testing"

	"cademycode/internal/storage"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"int": "NUMBER(38,0)", "bool": "BOOLEAN", "float": "FLOAT",
		"timestamp": "TIMESTAMP_TZ", "text": "VARCHAR",
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
	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotDSN = cfg.DSN
		return &Repository{}, func() { closed = true }, nil
	}

	dsn := "etl:pw@acct/CADEMYCODE/PUBLIC?warehouse=WH"
	repo, err := storage.New(context.Background(), storage.Config{Kind: "snowflake", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotDSN != dsn {
		t.Errorf("hook DSN = %q, want %q", gotDSN, dsn)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not invoke closeFn")
	}
}
