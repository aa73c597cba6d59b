package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"cademycode/internal/config"
	"cademycode/internal/errs"
	"cademycode/internal/keys"
	"cademycode/internal/storage"
	"cademycode/internal/table"
)

type stubRepo struct {
	kind   string
	closed *[]string
}

func (s stubRepo) ReadTable(context.Context, string) (*table.Table, error) { return nil, nil }

func (s stubRepo) ReplaceTable(context.Context, string, *table.Table) (int64, error) {
	return 0, nil
}

func (s stubRepo) Close() { *s.closed = append(*s.closed, s.kind) }

// withStorage swaps the storage factory for the duration of the test.
func withStorage(t *testing.T, f storage.Factory) {
	t.Helper()
	orig := newStorage
	newStorage = f
	t.Cleanup(func() { newStorage = orig })
}

func TestOpenWiresConfig(t *testing.T) {
	var closed []string
	withStorage(t, func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return stubRepo{kind: cfg.Kind, closed: &closed}, nil
	})

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.Kind = "src"
	cfg.Storage.Kind = "dst"
	cfg.Keys.MissingPolicy = "null"
	cfg.Export.Comma = ";"
	cfg.Run.State = filepath.Join(dir, "count.txt")
	cfg.Run.Changelog = filepath.Join(dir, "changelog.txt")

	d, closeFn, err := Open(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Policy != keys.PolicyNull {
		t.Fatalf("Policy = %v, want null", d.Policy)
	}
	if d.Persister.Export.Comma != ';' {
		t.Fatalf("export comma = %q, want ';'", d.Persister.Export.Comma)
	}
	if d.Persister.Table != cfg.Storage.Table || d.Recorder.Table != cfg.Storage.Table {
		t.Fatalf("table = %q/%q, want %q", d.Persister.Table, d.Recorder.Table, cfg.Storage.Table)
	}
	if d.State.Path != cfg.Run.State || d.Recorder.State.Path != cfg.Run.State {
		t.Fatalf("state path not wired: %+v", d.State)
	}
	if d.Keys.Job != "job_id" || d.Keys.CoursePath != "career_path_id" {
		t.Fatalf("keys = %+v", d.Keys)
	}

	closeFn()
	if len(closed) != 2 || closed[0] != "dst" || closed[1] != "src" {
		t.Fatalf("closed = %v, want [dst src]", closed)
	}
}

func TestOpenClassifiesFailures(t *testing.T) {
	var closed []string
	withStorage(t, func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		if cfg.Kind == "broken" {
			return nil, errors.New("connection refused")
		}
		return stubRepo{kind: cfg.Kind, closed: &closed}, nil
	})

	cases := []struct {
		name   string
		mutate func(*config.Pipeline)
		want   errs.Kind
	}{
		{"bad policy", func(p *config.Pipeline) { p.Keys.MissingPolicy = "drop" }, errs.UnexpectedFailure},
		{"source down", func(p *config.Pipeline) { p.Source.Kind = "broken" }, errs.SourceUnavailable},
		{"storage down", func(p *config.Pipeline) { p.Storage.Kind = "broken" }, errs.PersistenceFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			_, closeFn, err := Open(context.Background(), cfg, zerolog.Nop())
			if err == nil {
				closeFn()
				t.Fatalf("Open: want error")
			}
			if got := errs.KindOf(err); got != tc.want {
				t.Fatalf("kind = %v, want %v (err: %v)", got, tc.want, err)
			}
		})
	}

	// The source opened before the storage failure must have been closed.
	if len(closed) != 1 || closed[0] != "sqlite" {
		t.Fatalf("closed = %v, want [sqlite]", closed)
	}
}

func TestMetricsBackend(t *testing.T) {
	t.Parallel()

	b, err := MetricsBackend("cademycode", config.Metrics{Backend: "none"})
	if err != nil || b != nil {
		t.Fatalf("MetricsBackend(none) = %v, %v; want nil, nil", b, err)
	}

	b, err = MetricsBackend("cademycode", config.Metrics{Backend: "prometheus", PushgatewayURL: "http://127.0.0.1:9091"})
	if err != nil || b == nil {
		t.Fatalf("MetricsBackend(prometheus) = %v, %v", b, err)
	}

	b, err = MetricsBackend("cademycode", config.Metrics{Backend: "prometheus"})
	if err == nil || b != nil {
		t.Fatalf("MetricsBackend(prometheus without URL) = %v, %v; want error", b, err)
	}

	b, err = MetricsBackend("cademycode", config.Metrics{Backend: "datadog", DatadogAddr: "127.0.0.1:8125"})
	if err != nil || b == nil {
		t.Fatalf("MetricsBackend(datadog) = %v, %v", b, err)
	}
	_ = b.Flush()

	if _, err := MetricsBackend("cademycode", config.Metrics{Backend: "graphite"}); err == nil {
		t.Fatalf("MetricsBackend(graphite): want error")
	}
}
