// Package pq is the lib/pq flavour of the Postgres backend. It runs on the
// shared sqldb layer and loads rows with COPY through pq.CopyIn, for
// deployments that standardise on database/sql rather than pgx.
package pq

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"cademycode/internal/ddl"
	"cademycode/internal/storage/postgres"
	"cademycode/internal/storage/sqldb"
)

// Config holds the lib/pq connection settings.
type Config struct {
	DSN string // URL or key=value connection string
}

// Repository is a lib/pq-backed storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// Dialect is the sqldb dialect for lib/pq.
var Dialect = sqldb.Dialect{
	Name:       "pq",
	DriverName: "postgres",
	DDL:        ddl.Dialect{QuoteIdent: pq.QuoteIdentifier, MapType: postgres.MapType},
	Placeholder: func(i int) string {
		return fmt.Sprintf("$%d", i)
	},
	CopyIn:           copyIn,
	TransactionalDDL: true,
}

// NewRepository validates the DSN, connects and pings.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := pq.NewConnector(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("pq dsn: %w", err)
	}
	r, closeFn, err := sqldb.Open(ctx, Dialect, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r}, closeFn, nil
}

// copyIn builds the COPY statement, splitting "schema.table".
func copyIn(fqn string, columns []string) string {
	if schema, name, ok := strings.Cut(fqn, "."); ok {
		return pq.CopyInSchema(schema, name, columns...)
	}
	return pq.CopyIn(fqn, columns...)
}
