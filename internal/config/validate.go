package config

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"cademycode/internal/keys"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "source.contracts.students").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownKinds are the storage backends built into the binary.
var knownKinds = map[string]struct{}{
	"sqlite": {}, "postgres": {}, "pq": {}, "mssql": {}, "mysql": {}, "snowflake": {},
}

// ValidatePipeline performs static validation of p. It does not mutate p.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateStore("source", p.Source.Kind, p.Source.DSN)...)
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateKeys(p.Keys)...)
	issues = append(issues, validateStore("storage", p.Storage.Kind, p.Storage.DSN)...)
	issues = append(issues, required("storage.table", p.Storage.Table)...)
	issues = append(issues, validateExport(p.Export)...)
	issues = append(issues, required("run.state", p.Run.State)...)
	issues = append(issues, required("run.changelog", p.Run.Changelog)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	if strings.TrimSpace(p.Log.File) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "log.file",
			Message:  "no log file configured; logs go to the console only",
		})
	}
	return issues
}

func required(path, v string) []Issue {
	if strings.TrimSpace(v) != "" {
		return nil
	}
	return []Issue{{Severity: SeverityError, Path: path, Message: path + " must not be empty"}}
}

func validateStore(prefix, kind, dsn string) []Issue {
	var issues []Issue
	if strings.TrimSpace(kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     prefix + ".kind",
			Message:  prefix + ".kind must not be empty",
		})
	} else if _, ok := knownKinds[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     prefix + ".kind",
			Message:  fmt.Sprintf("unknown storage kind %q (known: %s)", kind, strings.Join(sortedKinds(), ", ")),
		})
	}
	issues = append(issues, required(prefix+".dsn", dsn)...)
	return issues
}

func sortedKinds() []string {
	out := make([]string, 0, len(knownKinds))
	for k := range knownKinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func validateSource(s Source) []Issue {
	var issues []Issue
	issues = append(issues, required("source.tables.students", s.Tables.Students)...)
	issues = append(issues, required("source.tables.jobs", s.Tables.Jobs)...)
	issues = append(issues, required("source.tables.courses", s.Tables.Courses)...)

	names := make([]string, 0, len(s.Contracts))
	for name := range s.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := "source.contracts." + name
		switch name {
		case "students", "jobs", "courses":
		default:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown source %q; contracts apply to students, jobs and courses", name),
			})
			continue
		}
		for i, col := range s.Contracts[name] {
			if strings.TrimSpace(col) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("%s[%d]", path, i),
					Message:  "required column name must not be empty",
				})
			}
		}
	}
	return issues
}

func validateKeys(k Keys) []Issue {
	var issues []Issue
	issues = append(issues, required("keys.job", k.Job)...)
	issues = append(issues, required("keys.student_path", k.StudentPath)...)
	issues = append(issues, required("keys.course_path", k.CoursePath)...)
	if _, err := keys.ParsePolicy(k.MissingPolicy); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "keys.missing_policy",
			Message:  err.Error(),
		})
	}
	return issues
}

func validateExport(e Export) []Issue {
	issues := required("export.path", e.Path)
	if e.Comma == "" {
		return issues
	}
	r, size := utf8.DecodeRuneInString(e.Comma)
	if size != len(e.Comma) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.comma",
			Message:  fmt.Sprintf("invalid delimiter %q; use a single character other than quote or newline", e.Comma),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case "", "none":
		return nil
	case "prometheus", "prom", "pushgateway":
		return required("metrics.pushgateway_url", m.PushgatewayURL)
	case "datadog", "dogstatsd":
		return required("metrics.datadog_addr", m.DatadogAddr)
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; use none, prometheus or datadog", m.Backend),
		}}
	}
}
