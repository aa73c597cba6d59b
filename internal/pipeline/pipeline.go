// Package pipeline runs one reconciliation pass: read the three sources,
// normalize join keys, merge, validate, persist and record the run.
//
// Stages run sequentially on the calling goroutine and fail fast. The run
// state and changelog are only touched after both outputs were written.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"cademycode/internal/config"
	"cademycode/internal/errs"
	"cademycode/internal/keys"
	"cademycode/internal/merge"
	"cademycode/internal/metrics"
	"cademycode/internal/persist"
	"cademycode/internal/recorder"
	"cademycode/internal/state"
	"cademycode/internal/storage"
	"cademycode/internal/table"
	"cademycode/internal/validate"
)

// Deps wires a run. Source, Persister.Store and Recorder.Sink are required.
type Deps struct {
	Job    string
	Source storage.Reader
	Tables config.Tables
	// Contracts lists required columns keyed by "students", "jobs", "courses".
	Contracts map[string][]string
	Keys      merge.Keys
	Policy    keys.Policy

	Persister persist.Persister
	State     state.File
	Recorder  recorder.Recorder

	Log   zerolog.Logger
	Clock clockwork.Clock
	// RunID tags log lines; a random UUID when empty.
	RunID string
}

// Result summarizes a successful run.
type Result struct {
	RunID     string
	Report    validate.Report
	Persisted persist.Result
	Final     *table.Table
}

// Run executes the pipeline. A non-nil error is always an *errs.Error.
func Run(ctx context.Context, d Deps) (res *Result, err error) {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.RunID == "" {
		d.RunID = uuid.NewString()
	}
	if d.Recorder.Clock == nil {
		d.Recorder.Clock = d.Clock
	}
	log := d.Log.With().Str("run_id", d.RunID).Str("job", d.Job).Logger()
	r := &run{d: d, log: log}

	defer func() {
		if p := recover(); p != nil {
			err = errs.E(errs.UnexpectedFailure, "pipeline", fmt.Errorf("panic: %v", p))
			log.Error().Err(err).Msg("Error in data pipeline")
			res = nil
		}
	}()

	log.Info().Msg("Starting data pipeline run.")
	res, err = r.exec(ctx)
	if err != nil {
		err = errs.Classify("pipeline", err)
		log.Error().Err(err).Str("kind", errs.KindOf(err).String()).Msg("Error in data pipeline")
		return nil, err
	}
	log.Info().
		Int("rows", res.Report.FinalRows).
		Str("checksum", res.Persisted.Export.Checksum).
		Msg("Final CSV and database table created successfully.")
	return res, nil
}

type run struct {
	d   Deps
	log zerolog.Logger
}

// step times fn and reports it to metrics.
func (r *run) step(name string, fn func() error) error {
	start := r.d.Clock.Now()
	err := fn()
	metrics.RecordStep(r.d.Job, name, err, r.d.Clock.Since(start))
	if err != nil {
		r.log.Error().Err(err).Str("step", name).Msg("Step failed.")
	}
	return err
}

func (r *run) exec(ctx context.Context) (*Result, error) {
	d := r.d
	var students, jobs, courses, final *table.Table

	err := r.step("read", func() error {
		var err error
		if students, err = r.read(ctx, "students", d.Tables.Students); err != nil {
			return err
		}
		if jobs, err = r.read(ctx, "jobs", d.Tables.Jobs); err != nil {
			return err
		}
		courses, err = r.read(ctx, "courses", d.Tables.Courses)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordRows(d.Job, "students", int64(students.Len()))

	var s, j, c *table.Table
	err = r.step("normalize", func() error {
		r.log.Info().Str("key", d.Keys.Job).Msg("Converting join key columns to integers.")
		var err error
		s, j, c, err = d.Keys.Normalize(students, jobs, courses)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.step("merge", func() error {
		r.log.Info().Msg("Merging tables.")
		merged, err := d.Keys.Join(s, j, c)
		if err != nil {
			return err
		}
		final = keys.Materialize(merged, d.Policy)
		final.Name = d.Persister.Table
		return nil
	})
	if err != nil {
		return nil, err
	}

	var report validate.Report
	err = r.step("validate", func() error {
		prev, err := d.State.Load()
		if err != nil {
			return errs.E(errs.PersistenceFailure, "load run state", err)
		}
		report = validate.Compute(students, final, prev)
		r.logReport(report)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var persisted persist.Result
	err = r.step("persist", func() error {
		r.log.Info().Str("table", d.Persister.Table).Str("export", d.Persister.Export.Path).
			Msg("Saving the final table to the database and CSV file.")
		var err error
		persisted, err = d.Persister.Persist(ctx, final)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.step("record", func() error {
		return d.Recorder.Record(ctx, recorder.Outcome{
			RowDelta:     report.RowDelta,
			TotalMissing: report.TotalMissing,
			FinalRows:    report.FinalRows,
			Growth:       report.Growth,
			Checksum:     persisted.Export.Checksum,
		})
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:     d.RunID,
		Report:    report,
		Persisted: persisted,
		Final:     final,
	}, nil
}

// read fetches one source table and checks its contract.
func (r *run) read(ctx context.Context, source, name string) (*table.Table, error) {
	t, err := r.d.Source.ReadTable(ctx, name)
	if err != nil {
		return nil, errs.E(errs.SourceUnavailable, "read "+name, err)
	}
	if err := RequireColumns(t, r.d.Contracts[source]); err != nil {
		return nil, err
	}
	r.log.Info().Str("table", name).Int("rows", t.Len()).Msgf("Data from %s read successfully.", name)
	return t, nil
}

func (r *run) logReport(rep validate.Report) {
	r.log.Info().
		Int("before", rep.BaselineRows).
		Int("after", rep.FinalRows).
		Msg("Row counts before and after merge.")
	r.log.Info().
		Int("total_missing", rep.TotalMissing).
		Str("missing", rep.MissingSummary()).
		Msg("Missing values in the final table.")
	metrics.RecordRows(r.d.Job, "final", int64(rep.FinalRows))
	metrics.RecordRows(r.d.Job, "missing", int64(rep.TotalMissing))
	metrics.RecordRows(r.d.Job, "fanout", int64(rep.RowDelta))

	if rep.FanOut() {
		r.log.Warn().
			Int("row_delta", rep.RowDelta).
			Msg("Merged table has more rows than students; a lookup key is not unique.")
	}
	if rep.Shrunk() {
		r.log.Warn().
			Int64("previous_rows", rep.PreviousRows).
			Int("rows", rep.FinalRows).
			Msg("Final table is smaller than after the previous run.")
	}
}

// RequireColumns fails with SchemaMismatch when t lacks any of cols.
func RequireColumns(t *table.Table, cols []string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errs.Errorf(errs.SchemaMismatch, "contract "+t.Name,
		"missing required column(s): %s", strings.Join(missing, ", "))
}
