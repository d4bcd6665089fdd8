package model

import "time"

// RunReport aggregates the results of one collection run.
// It is the unit the report writers render and the collect command
// summarizes after attempting every row.
type RunReport struct {
	// CatalogPath is the input CSV file the run read rows from.
	CatalogPath string `json:"catalogPath"`

	// OutputDir is the directory downloaded images were written to.
	OutputDir string `json:"outputDir"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the last row (and its politeness delay) completed.
	FinishedAt time.Time `json:"finishedAt"`

	// Rows holds the per-row outcomes in catalog order.
	Rows []*RowResult `json:"rows"`

	// Cancelled is true when the run was interrupted before attempting
	// every row. Completed rows keep their results.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewRunReport creates a RunReport for the given input and output paths.
func NewRunReport(catalogPath, outputDir string) *RunReport {
	return &RunReport{
		CatalogPath: catalogPath,
		OutputDir:   outputDir,
		StartedAt:   time.Now(),
		Rows:        make([]*RowResult, 0),
	}
}

// Add appends a row result to the report.
func (r *RunReport) Add(result *RowResult) {
	r.Rows = append(r.Rows, result)
}

// CountByStatus returns the number of rows with the given status.
func (r *RunReport) CountByStatus(status RowStatus) int {
	n := 0
	for _, row := range r.Rows {
		if row.Status == status {
			n++
		}
	}
	return n
}

// Downloaded returns the number of successfully collected rows.
func (r *RunReport) Downloaded() int { return r.CountByStatus(StatusDone) }

// Skipped returns the number of rows the skip policy excluded.
func (r *RunReport) Skipped() int { return r.CountByStatus(StatusSkipped) }

// Failed returns the number of rows that exhausted their candidates.
func (r *RunReport) Failed() int { return r.CountByStatus(StatusFailed) }

// Normalized returns the number of downloaded files that required
// format transcoding.
func (r *RunReport) Normalized() int {
	n := 0
	for _, row := range r.Rows {
		if row.Status == StatusDone && row.Normalized {
			n++
		}
	}
	return n
}

// RowsByStatus returns the row results with the given status, in
// catalog order.
func (r *RunReport) RowsByStatus(status RowStatus) []*RowResult {
	out := make([]*RowResult, 0)
	for _, row := range r.Rows {
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out
}

// Elapsed returns the total run duration.
func (r *RunReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
