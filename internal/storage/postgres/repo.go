// Package postgres implements a Postgres repository using pgx v5. Tables are
// replaced inside one transaction: DROP, CREATE, then COPY FROM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"cademycode/internal/ddl"
	"cademycode/internal/table"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// Dialect quotes with pgx.Identifier rules and maps kinds with MapType.
var Dialect = ddl.Dialect{QuoteIdent: pgIdent, MapType: MapType}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool}, close, nil
}

// ReadTable selects every row of name.
func (r *Repository) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	rows, err := r.pool.Query(ctx, "SELECT * FROM "+ddl.QuoteFQN(name, Dialect))
	if err != nil {
		return nil, fmt.Errorf("postgres: read %s: %w", name, pgDetail(err))
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	t := table.New(name, cols...)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: read %s: %w", name, err)
		}
		for i, v := range vals {
			vals[i] = canonical(v)
		}
		if err := t.Append(vals...); err != nil {
			return nil, fmt.Errorf("postgres: read %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: read %s: %w", name, pgDetail(err))
	}
	return t, nil
}

// ReplaceTable drops and recreates fqn and COPYs t into it in one
// transaction.
func (r *Repository) ReplaceTable(ctx context.Context, fqn string, t *table.Table) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("postgres: replace %s: nil table", fqn)
	}
	td, err := ddl.Infer(t, fqn, Dialect)
	if err != nil {
		return 0, fmt.Errorf("postgres: replace %s: %w", fqn, err)
	}
	create, err := ddl.BuildCreateTableSQL(td, Dialect)
	if err != nil {
		return 0, fmt.Errorf("postgres: replace %s: %w", fqn, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range []string{ddl.BuildDropTableSQL(fqn, Dialect), create} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("postgres: exec: %w", pgDetail(err))
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier(strings.Split(fqn, ".")), t.Columns, pgx.CopyFromRows(copyRows(t)))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", fqn, pgDetail(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return n, nil
}

// pgDetail surfaces the server-side detail of a *pgconn.PgError.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
	}
	return err
}

func copyRows(t *table.Table) [][]any {
	out := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		cp := make([]any, len(row))
		for j, v := range row {
			if table.IsMissing(v) {
				continue
			}
			cp[j] = v
		}
		out[i] = cp
	}
	return out
}

// canonical converts pgx-specific values before table.Canonical.
func canonical(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	}
	return table.Canonical(v)
}

func pgIdent(s string) string {
	return pgx.Identifier{s}.Sanitize()
}

// MapType maps an inferred column kind to a Postgres type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ddl.KindInt:
		return "BIGINT"
	case ddl.KindBool:
		return "BOOLEAN"
	case ddl.KindFloat:
		return "DOUBLE PRECISION"
	case ddl.KindTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
