package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"cademycode/internal/changelog"
	"cademycode/internal/config"
	"cademycode/internal/errs"
	"cademycode/internal/export"
	"cademycode/internal/keys"
	"cademycode/internal/merge"
	"cademycode/internal/metrics"
	"cademycode/internal/metrics/datadog"
	"cademycode/internal/metrics/prompush"
	"cademycode/internal/persist"
	"cademycode/internal/recorder"
	"cademycode/internal/state"
	"cademycode/internal/storage"
)

// newStorage is a test hook that points to storage.New by default.
var newStorage = storage.New

// Open builds Deps from cfg and opens both stores. The returned function
// closes them. Backends must be registered, typically by importing
// cademycode/internal/storage/all.
func Open(ctx context.Context, cfg config.Pipeline, log zerolog.Logger) (Deps, func(), error) {
	policy, err := keys.ParsePolicy(cfg.Keys.MissingPolicy)
	if err != nil {
		return Deps{}, nil, errs.E(errs.UnexpectedFailure, "config", err)
	}

	src, err := newStorage(ctx, storage.Config{Kind: cfg.Source.Kind, DSN: cfg.Source.DSN})
	if err != nil {
		return Deps{}, nil, errs.E(errs.SourceUnavailable, "open source "+cfg.Source.Kind, err)
	}
	dst, err := newStorage(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		src.Close()
		return Deps{}, nil, errs.E(errs.PersistenceFailure, "open storage "+cfg.Storage.Kind, err)
	}
	closeFn := func() {
		dst.Close()
		src.Close()
	}

	clock := clockwork.NewRealClock()
	st := state.File{Path: cfg.Run.State}
	d := Deps{
		Job:       cfg.Job,
		Source:    src,
		Tables:    cfg.Source.Tables,
		Contracts: cfg.Source.Contracts,
		Keys: merge.Keys{
			Job:         cfg.Keys.Job,
			StudentPath: cfg.Keys.StudentPath,
			CoursePath:  cfg.Keys.CoursePath,
		},
		Policy: policy,
		Persister: persist.Persister{
			Store:  dst,
			Table:  cfg.Storage.Table,
			Export: export.Writer{Path: cfg.Export.Path, Comma: cfg.Export.CommaRune()},
		},
		State: st,
		Recorder: recorder.Recorder{
			State: st,
			Sink:  changelog.FileSink{Path: cfg.Run.Changelog},
			Clock: clock,
			Table: cfg.Storage.Table,
			Fixed: cfg.Notes.Fixed,
			Notes: cfg.Notes.Changed,
		},
		Log:   log,
		Clock: clock,
	}
	return d, closeFn, nil
}

// MetricsBackend returns the backend selected by cfg, or nil for "none".
func MetricsBackend(job string, cfg config.Metrics) (metrics.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "prometheus", "prom", "pushgateway":
		b, err := prompush.NewBackend(job, cfg.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "datadog", "dogstatsd":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  cfg.Namespace,
			GlobalTags: cfg.Tags,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", cfg.Backend)
	}
}
