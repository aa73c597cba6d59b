package merge

import (
	"cademycode/internal/keys"
	"cademycode/internal/table"
)

// Keys names the join-key columns of the three sources.
type Keys struct {
	Job         string // students.job_id = jobs.job_id
	StudentPath string // students.current_career_path_id
	CoursePath  string // courses.career_path_id
}

// DefaultKeys are the column names of the cademycode sources.
var DefaultKeys = Keys{
	Job:         "job_id",
	StudentPath: "current_career_path_id",
	CoursePath:  "career_path_id",
}

// Normalize returns the three inputs with the keys this plan joins on
// converted to keys.Key. The student career-path key is normalized later, on
// the merged table.
func (k Keys) Normalize(students, jobs, courses *table.Table) (s, j, c *table.Table, err error) {
	if s, err = keys.NormalizeColumn(students, k.Job); err != nil {
		return nil, nil, nil, err
	}
	if j, err = keys.NormalizeColumn(jobs, k.Job); err != nil {
		return nil, nil, nil, err
	}
	if c, err = keys.NormalizeColumn(courses, k.CoursePath); err != nil {
		return nil, nil, nil, err
	}
	return s, j, c, nil
}

// Join runs students LEFT JOIN jobs, then the result LEFT JOIN courses.
// Inputs must have been through Normalize.
func (k Keys) Join(students, jobs, courses *table.Table) (*table.Table, error) {
	merged, err := LeftJoin(students, jobs, k.Job, k.Job)
	if err != nil {
		return nil, err
	}
	merged, err = keys.NormalizeColumn(merged, k.StudentPath)
	if err != nil {
		return nil, err
	}
	return LeftJoin(merged, courses, k.StudentPath, k.CoursePath)
}
