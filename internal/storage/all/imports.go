// Package all wires every built-in storage backend into the storage factory.
//
// It exists purely for side effects: importing it runs the init functions of
// each backend, which register these kinds:
//
//   - "sqlite"    (modernc.org/sqlite)
//   - "postgres"  (pgx v5, COPY FROM)
//   - "pq"        (lib/pq, COPY FROM STDIN)
//   - "mssql"     (go-mssqldb, bulk copy)
//   - "mysql"     (go-sql-driver/mysql)
//   - "snowflake" (gosnowflake)
//
// Typical usage in a wiring layer:
//
//	import _ "cademycode/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Source.Kind, DSN: cfg.Source.DSN})
//
// A binary that needs only a subset can import the backend packages directly.
package all

import (
	_ "cademycode/internal/storage/mssql"
	_ "cademycode/internal/storage/mysql"
	_ "cademycode/internal/storage/postgres"
	_ "cademycode/internal/storage/pq"
	_ "cademycode/internal/storage/snowflake"
	_ "cademycode/internal/storage/sqlite"
)
