// Package config defines the JSON-serializable configuration model for the
// reconciliation pipeline.
//
// Values are resolved in three layers: Default(), then the optional JSON
// file, then environment overrides (see Load). Field names mirror the JSON
// keys.
//
// Example (trimmed):
//
//	{
//	  "job":     "cademycode",
//	  "source":  { "kind": "sqlite", "dsn": "dev/cademycode_updated.db",
//	               "tables": { "students": "cademycode_students" } },
//	  "storage": { "kind": "postgres", "dsn": "postgres://...", "table": "public.cademycode_final" },
//	  "export":  { "path": "dev/cademycode_final_local.csv" }
//	}
package config

// Pipeline is the top-level configuration object.
type Pipeline struct {
	// Job labels metrics and log lines.
	Job string `json:"job"`

	Source  Source  `json:"source"`
	Keys    Keys    `json:"keys"`
	Storage Storage `json:"storage"`
	Export  Export  `json:"export"`
	Run     Run     `json:"run"`
	Log     Log     `json:"log"`
	Notes   Notes   `json:"notes"`
	Metrics Metrics `json:"metrics"`
}

// Source is the store holding the three input tables.
type Source struct {
	// Kind selects the storage backend, e.g. "sqlite".
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`

	Tables Tables `json:"tables"`

	// Contracts lists required columns per logical source ("students",
	// "jobs", "courses"). A table missing one fails the run with a schema
	// mismatch.
	Contracts map[string][]string `json:"contracts"`
}

// Tables names the input tables.
type Tables struct {
	Students string `json:"students"`
	Jobs     string `json:"jobs"`
	Courses  string `json:"courses"`
}

// Keys names the join columns and the missing-key policy.
type Keys struct {
	Job         string `json:"job"`
	StudentPath string `json:"student_path"`
	CoursePath  string `json:"course_path"`
	// MissingPolicy is "zero" (default) or "null".
	MissingPolicy string `json:"missing_policy"`
}

// Storage is the destination store for the denormalized table.
type Storage struct {
	Kind  string `json:"kind"`
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// Export configures the flat-file export.
type Export struct {
	Path string `json:"path"`
	// Comma is a single-character delimiter; empty means ",".
	Comma string `json:"comma"`
}

// Run holds the files touched at the end of a successful run.
type Run struct {
	State     string `json:"state"`
	Changelog string `json:"changelog"`
}

// Log configures logging.
type Log struct {
	File    string `json:"file"`
	Level   string `json:"level"`
	NoColor bool   `json:"no_color"`
}

// Notes are the descriptive lines written into each changelog entry.
type Notes struct {
	Fixed   []string `json:"fixed"`
	Changed []string `json:"changed"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is "none" (default), "prometheus" or "datadog".
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr"`
	Namespace      string   `json:"namespace"`
	Tags           []string `json:"tags"`
}

// Default returns the configuration used when nothing else is given. Paths
// follow the dev/ layout of a local checkout.
func Default() Pipeline {
	return Pipeline{
		Job: "cademycode",
		Source: Source{
			Kind: "sqlite",
			DSN:  "dev/cademycode_updated.db",
			Tables: Tables{
				Students: "cademycode_students",
				Jobs:     "cademycode_student_jobs",
				Courses:  "cademycode_courses",
			},
			Contracts: map[string][]string{
				"students": {"uuid", "job_id", "current_career_path_id"},
				"jobs":     {"job_id"},
				"courses":  {"career_path_id"},
			},
		},
		Keys: Keys{
			Job:           "job_id",
			StudentPath:   "current_career_path_id",
			CoursePath:    "career_path_id",
			MissingPolicy: "zero",
		},
		Storage: Storage{
			Kind:  "sqlite",
			DSN:   "dev/cademycode_clean_local.db",
			Table: "cademycode_final_local",
		},
		Export: Export{Path: "dev/cademycode_final_local.csv"},
		Run: Run{
			State:     "dev/previous_row_count.txt",
			Changelog: "dev/changelog.txt",
		},
		Log: Log{File: "dev/data_pipeline.log", Level: "info"},
		Notes: Notes{
			Fixed: []string{"Fixed missing table errors for `cademycode_courses`"},
		},
		Metrics: Metrics{Backend: "none"},
	}
}

// CommaRune returns the export delimiter as a rune; 0 means the default.
func (e Export) CommaRune() rune {
	for _, r := range e.Comma {
		return r
	}
	return 0
}
