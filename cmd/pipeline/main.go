// Command pipeline runs one cademycode reconciliation pass: it reads the
// students, jobs and courses tables, merges them into one denormalized table,
// writes that table to the destination store and a CSV file, and appends a
// changelog entry.
//
// It takes no flags. Configuration comes from the JSON file named by
// PIPELINE_CONFIG (optional), environment variables and a .env file in the
// working directory. The exit status is 0 on success, 2 when a source is
// unavailable, 3 on a schema mismatch, 4 when outputs could not be written
// and 1 otherwise.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"cademycode/internal/config"
	"cademycode/internal/errs"
	"cademycode/internal/logging"
	"cademycode/internal/metrics"
	"cademycode/internal/pipeline"
	_ "cademycode/internal/storage/all"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(run(context.Background(), os.Stdout, os.LookupEnv))
}

// run executes the pipeline and returns the process exit status.
func run(ctx context.Context, stdout io.Writer, lookup config.LookupFunc) int {
	path, _ := lookup("PIPELINE_CONFIG")
	cfg, err := config.Load(path, lookup)
	if err == nil {
		err = config.Check(cfg)
	}
	if err != nil {
		err = errs.E(errs.UnexpectedFailure, "config", err)
		fmt.Fprintf(stdout, "Data pipeline failed: %v\n", err)
		return errs.ExitCode(err)
	}

	log, closeLog, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: stdout,
		NoColor: cfg.Log.NoColor,
	})
	if err != nil {
		fmt.Fprintf(stdout, "Data pipeline failed: %v\n", err)
		return 1
	}
	defer closeLog()

	for _, iss := range config.ValidatePipeline(cfg) {
		log.Warn().Str("path", iss.Path).Msg(iss.Message)
	}

	backend, err := pipeline.MetricsBackend(cfg.Job, cfg.Metrics)
	if err != nil {
		log.Warn().Err(err).Msg("Metrics disabled.")
	}
	metrics.SetBackend(backend)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("Flushing metrics failed.")
		}
	}()

	deps, closeStores, err := pipeline.Open(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Error in data pipeline")
		fmt.Fprintf(stdout, "Data pipeline failed: %v\n", err)
		return errs.ExitCode(err)
	}
	defer closeStores()

	res, err := pipeline.Run(ctx, deps)
	if err != nil {
		fmt.Fprintf(stdout, "Data pipeline failed: %v\n", err)
		return errs.ExitCode(err)
	}
	fmt.Fprintf(stdout, "Data pipeline completed: %d rows written to %s and %s.\n",
		res.Report.FinalRows, cfg.Storage.Table, res.Persisted.Export.Path)
	return 0
}
