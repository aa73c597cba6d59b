// Package mysql provides a MySQL-backed storage.Repository on the shared
// sqldb layer.
//
// MySQL commits DDL implicitly, so DROP/CREATE run before the insert
// transaction; a failed insert leaves an empty table behind.
package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"cademycode/internal/ddl"
	"cademycode/internal/storage/sqldb"
)

// Config holds the MySQL connection settings.
type Config struct {
	DSN string // user:pass@tcp(host:3306)/db?parseTime=true
}

// Repository is a MySQL-backed storage.Repository.
type Repository struct {
	*sqldb.Repository
}

// Dialect is the sqldb dialect for go-sql-driver/mysql.
var Dialect = sqldb.Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	DDL:        ddl.Dialect{QuoteIdent: backtick, MapType: MapType},
}

// NewRepository validates the DSN with mysql.ParseDSN, then connects.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	// Timestamps come back as time.Time rather than []byte.
	mc.ParseTime = true
	r, closeFn, err := sqldb.Open(ctx, Dialect, mc.FormatDSN())
	if err != nil {
		return nil, nil, err
	}
	return &Repository{Repository: r}, closeFn, nil
}

func backtick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// MapType maps an inferred column kind to a MySQL type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ddl.KindInt:
		return "BIGINT"
	case ddl.KindBool:
		return "BOOLEAN"
	case ddl.KindFloat:
		return "DOUBLE"
	case ddl.KindTimestamp:
		return "DATETIME(6)"
	default:
		return "LONGTEXT"
	}
}
