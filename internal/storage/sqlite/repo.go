// Package sqlite implements a SQLite-backed storage.Repository on the shared
// sqldb layer. SQLite has no bulk-load API; a single transaction around a
// prepared INSERT keeps moderate volumes fast.
package sqlite

import (
	"context"
	"strings"

	_ "modernc.org/sqlite"

	"cademycode/internal/ddl"
	"cademycode/internal/storage/sqldb"
)

// Config holds the SQLite connection settings.
type Config struct {
	// DSN is a file path or URI, e.g. "dev/cademycode.db" or
	// "file:dev/cademycode.db?_pragma=busy_timeout(5000)".
	DSN string
}

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// Dialect is the sqldb dialect for modernc.org/sqlite.
var Dialect = sqldb.Dialect{
	Name:             "sqlite",
	DriverName:       "sqlite",
	DDL:              ddl.Dialect{QuoteIdent: ddl.DoubleQuote, MapType: MapType},
	TransactionalDDL: true,
}

// NewRepository opens the database file and returns a Repository plus a
// close function. The pool is limited to one connection; SQLite serializes
// writers anyway.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	r, closeFn, err := sqldb.Open(ctx, Dialect, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	r.DB().SetMaxOpenConns(1)
	return &Repository{Repository: r}, closeFn, nil
}

// MapType maps an inferred column kind to a SQLite storage class.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ddl.KindInt:
		return "INTEGER"
	case ddl.KindBool:
		return "INTEGER" // 0/1
	case ddl.KindFloat:
		return "REAL"
	case ddl.KindTimestamp:
		return "TEXT" // ISO-8601
	default:
		return "TEXT"
	}
}
