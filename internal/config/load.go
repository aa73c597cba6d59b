package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load resolves the configuration: Default, then the JSON file at path (when
// path is non-empty), then environment overrides read through lookup.
func Load(path string, lookup LookupFunc) (Pipeline, error) {
	p := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return p, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if lookup != nil {
		ApplyEnv(&p, lookup)
	}
	return p, nil
}

// envBindings maps environment variables onto fields.
var envBindings = []struct {
	key string
	set func(p *Pipeline, v string)
}{
	{"PIPELINE_JOB", func(p *Pipeline, v string) { p.Job = v }},
	{"PIPELINE_SOURCE_KIND", func(p *Pipeline, v string) { p.Source.Kind = v }},
	{"PIPELINE_SOURCE_DSN", func(p *Pipeline, v string) { p.Source.DSN = v }},
	{"PIPELINE_STORAGE_KIND", func(p *Pipeline, v string) { p.Storage.Kind = v }},
	{"PIPELINE_STORAGE_DSN", func(p *Pipeline, v string) { p.Storage.DSN = v }},
	{"PIPELINE_STORAGE_TABLE", func(p *Pipeline, v string) { p.Storage.Table = v }},
	{"PIPELINE_EXPORT_PATH", func(p *Pipeline, v string) { p.Export.Path = v }},
	{"PIPELINE_STATE_FILE", func(p *Pipeline, v string) { p.Run.State = v }},
	{"PIPELINE_CHANGELOG_FILE", func(p *Pipeline, v string) { p.Run.Changelog = v }},
	{"PIPELINE_LOG_FILE", func(p *Pipeline, v string) { p.Log.File = v }},
	{"PIPELINE_MISSING_KEY_POLICY", func(p *Pipeline, v string) { p.Keys.MissingPolicy = v }},
	{"LOG_LEVEL", func(p *Pipeline, v string) { p.Log.Level = v }},
	{"NO_COLOR", func(p *Pipeline, v string) { p.Log.NoColor = v != "" }},
	{"METRICS_BACKEND", func(p *Pipeline, v string) { p.Metrics.Backend = v }},
	{"PUSHGATEWAY_URL", func(p *Pipeline, v string) { p.Metrics.PushgatewayURL = v }},
	{"DD_AGENT_ADDR", func(p *Pipeline, v string) { p.Metrics.DatadogAddr = v }},
}

// ApplyEnv overrides fields from set environment variables. Empty values are
// ignored except for NO_COLOR, where presence is what matters.
func ApplyEnv(p *Pipeline, lookup LookupFunc) {
	for _, b := range envBindings {
		v, ok := lookup(b.key)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" && b.key != "NO_COLOR" {
			continue
		}
		b.set(p, v)
	}
}

// Check runs ValidatePipeline and joins the error-severity issues.
func Check(p Pipeline) error {
	var errs []error
	for _, iss := range ValidatePipeline(p) {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}
