// Package persist writes the final table to the destination store and the
// export file from one in-memory snapshot.
package persist

import (
	"context"

	"cademycode/internal/errs"
	"cademycode/internal/export"
	"cademycode/internal/storage"
	"cademycode/internal/table"
)

// Persister replaces Table in Store and rewrites Export.
type Persister struct {
	Store  storage.Writer
	Table  string
	Export export.Writer
}

// Result reports what was written.
type Result struct {
	TableRows int64
	Export    export.Result
}

// Persist replaces the destination table, then writes the export file. Any
// failure is a PersistenceFailure.
func (p Persister) Persist(ctx context.Context, final *table.Table) (Result, error) {
	if final == nil {
		return Result{}, errs.Errorf(errs.PersistenceFailure, "persist", "nil table")
	}
	// Both outputs read the same snapshot.
	snap := final.Clone()

	n, err := p.Store.ReplaceTable(ctx, p.Table, snap)
	if err != nil {
		return Result{}, errs.E(errs.PersistenceFailure, "replace table "+p.Table, err)
	}
	res, err := p.Export.Write(snap)
	if err != nil {
		return Result{TableRows: n}, errs.E(errs.PersistenceFailure, "export "+p.Export.Path, err)
	}
	return Result{TableRows: n, Export: res}, nil
}
