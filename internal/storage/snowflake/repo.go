// Package snowflake implements a Snowflake storage.Repository on the shared
// sqldb layer. Snowflake returns NUMBER columns as strings; the key normalizer
// and the CSV writer accept either form.
package snowflake

import (
	"context"
	"fmt"
	"strings"

	sf "github.com/snowflakedb/gosnowflake"

	"cademycode/internal/ddl"
	"cademycode/internal/storage/sqldb"
)

// Config holds the Snowflake connection settings.
type Config struct {
	DSN string // user:pass@account/database/schema?warehouse=wh
}

// Repository is a Snowflake-backed storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// Dialect is the sqldb dialect for gosnowflake. DDL auto-commits.
var Dialect = sqldb.Dialect{
	Name:       "snowflake",
	DriverName: "snowflake",
	DDL:        ddl.Dialect{QuoteIdent: ddl.DoubleQuote, MapType: MapType},
}

// NewRepository validates the DSN with gosnowflake.ParseDSN, then connects.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := sf.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("snowflake dsn: %w", err)
	}
	r, closeFn, err := sqldb.Open(ctx, Dialect, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r}, closeFn, nil
}

// MapType maps an inferred column kind to a Snowflake type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ddl.KindInt:
		return "NUMBER(38,0)"
	case ddl.KindBool:
		return "BOOLEAN"
	case ddl.KindFloat:
		return "FLOAT"
	case ddl.KindTimestamp:
		return "TIMESTAMP_TZ"
	default:
		return "VARCHAR"
	}
}
