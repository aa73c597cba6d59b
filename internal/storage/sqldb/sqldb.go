// Package sqldb implements storage.Repository on top of database/sql through
// sqlx. Drivers that speak database/sql (SQLite, lib/pq, SQL Server, MySQL,
// Snowflake) share it and differ only in their Dialect.
package sqldb

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"cademycode/internal/ddl"
	"cademycode/internal/table"
)

// Dialect describes the per-driver differences.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite".
	Name string
	// DriverName is the database/sql driver name passed to sqlx.Open.
	DriverName string
	// DDL quotes identifiers and maps inferred kinds to SQL types.
	DDL ddl.Dialect
	// Placeholder returns the bind parameter for the 1-based position i.
	// Nil means "?".
	Placeholder func(i int) string
	// CopyIn, when set, returns a statement that bulk-loads rows into fqn
	// (lib/pq and go-mssqldb style): Exec once per row, then once with no
	// arguments to flush.
	CopyIn func(fqn string, columns []string) string
	// TransactionalDDL is false for stores where DROP/CREATE commit
	// implicitly (MySQL, Snowflake).
	TransactionalDDL bool
}

// Repository reads and replaces tables through one sqlx.DB.
type Repository struct {
	db *sqlx.DB
	d  Dialect
}

// Open connects with d.DriverName and pings within 5s.
func Open(ctx context.Context, d Dialect, dsn string) (*Repository, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	db, err := sqlx.Open(d.DriverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}

	r := New(db, d)
	return r, func() { db.Close() }, nil
}

// New wraps an already open database.
func New(db *sqlx.DB, d Dialect) *Repository {
	return &Repository{db: db, d: d}
}

// DB exposes the underlying handle, mainly for tests.
func (r *Repository) DB() *sqlx.DB { return r.db }

// ReadTable runs SELECT * against name and returns rows in stored order.
func (r *Repository) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	q := "SELECT * FROM " + ddl.QuoteFQN(name, r.d.DDL)
	rows, err := r.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", r.d.Name, name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: columns: %w", r.d.Name, name, err)
	}
	t := table.New(name, cols...)
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: scan: %w", r.d.Name, name, err)
		}
		if err := t.Append(table.CanonicalRow(vals)...); err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", r.d.Name, name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", r.d.Name, name, err)
	}
	return t, nil
}

// ReplaceTable drops and recreates fqn from t's inferred schema, then inserts
// every row. On dialects with TransactionalDDL a failure leaves the previous
// table untouched.
func (r *Repository) ReplaceTable(ctx context.Context, fqn string, t *table.Table) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("%s: replace %s: nil table", r.d.Name, fqn)
	}
	td, err := ddl.Infer(t, fqn, r.d.DDL)
	if err != nil {
		return 0, fmt.Errorf("%s: replace %s: %w", r.d.Name, fqn, err)
	}
	create, err := ddl.BuildCreateTableSQL(td, r.d.DDL)
	if err != nil {
		return 0, fmt.Errorf("%s: replace %s: %w", r.d.Name, fqn, err)
	}
	drop := ddl.BuildDropTableSQL(fqn, r.d.DDL)

	if !r.d.TransactionalDDL {
		for _, stmt := range []string{drop, create} {
			if _, err := r.db.ExecContext(ctx, stmt); err != nil {
				return 0, fmt.Errorf("%s: exec %q: %w", r.d.Name, firstLine(stmt), err)
			}
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", r.d.Name, err)
	}
	if r.d.TransactionalDDL {
		for _, stmt := range []string{drop, create} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("%s: exec %q: %w", r.d.Name, firstLine(stmt), err)
			}
		}
	}

	n, err := r.insert(ctx, tx, fqn, t)
	if err != nil {
		_ = tx.Rollback()
		return n, err
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("%s: commit: %w", r.d.Name, err)
	}
	return n, nil
}

func (r *Repository) insert(ctx context.Context, tx *sqlx.Tx, fqn string, t *table.Table) (int64, error) {
	if t.Len() == 0 {
		return 0, nil
	}

	var stmtSQL string
	if r.d.CopyIn != nil {
		stmtSQL = r.d.CopyIn(fqn, t.Columns)
	} else {
		stmtSQL = InsertSQL(fqn, t.Columns, r.d)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, fmt.Errorf("%s: prepare insert: %w", r.d.Name, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, bindRow(row)...); err != nil {
			return inserted, fmt.Errorf("%s: insert row %d: %w", r.d.Name, inserted, err)
		}
		inserted++
	}
	if r.d.CopyIn != nil {
		if _, err := stmt.ExecContext(ctx); err != nil {
			return inserted, fmt.Errorf("%s: flush copy: %w", r.d.Name, err)
		}
	}
	return inserted, nil
}

// InsertSQL builds INSERT INTO <fqn> (<cols>) VALUES (<placeholders>).
func InsertSQL(fqn string, columns []string, d Dialect) string {
	ph := make([]string, len(columns))
	for i := range ph {
		if d.Placeholder != nil {
			ph[i] = d.Placeholder(i + 1)
		} else {
			ph[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(fqn, d.DDL),
		ddl.QuoteList(columns, d.DDL),
		strings.Join(ph, ", "),
	)
}

// bindRow converts missing floats to NULL; most engines reject NaN.
func bindRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[i] = nil
			continue
		}
		out[i] = v
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
