package domain

import "time"

// RunInfo is the info_annojs_<name>.json artifact written at the start of a pull.
type RunInfo struct {
	SourceURL  string    `json:"source_url"`
	APIKey     string    `json:"api_key"`
	ContextID  string    `json:"context_id"`
	TotalRows  int       `json:"total_rows"`
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	PageSize   int       `json:"page_size"`
	APIVersion string    `json:"api_version"`
}

// Checkpoint records the last committed offset so a pull can resume.
type Checkpoint struct {
	ContextID string    `json:"context_id"`
	RunID     string    `json:"run_id"`
	Offset    int       `json:"offset"`
	Page      int       `json:"page"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunReport holds the counts shown at the end of every command.
type RunReport struct {
	Fetched      int `json:"fetched"`
	Unique       int `json:"unique"`
	Duplicates   int `json:"duplicates"`
	Converted    int `json:"converted"`
	Errored      int `json:"errored"`
	Rejected     int `json:"rejected"`
	Repaired     int `json:"repaired"`
	Imported     int `json:"imported"`
	ImportFailed int `json:"import_failed"`
	Deleted      int `json:"deleted"`
	DeleteFailed int `json:"delete_failed"`
	Matched      int `json:"matched"`
	Mismatched   int `json:"mismatched"`
	Missing      int `json:"missing"`
	Pages        int `json:"pages"`
}

// AddBatch folds a normalisation result into the report.
func (r *RunReport) AddBatch(b *BatchResult) {
	r.Converted += len(b.Canonical)
	r.Errored += len(b.Errors)
	r.Rejected += len(b.Rejected)
	r.Repaired += b.Repaired
}

// AddPull folds accumulation stats into the report.
func (r *RunReport) AddPull(s *PullStats) {
	r.Fetched += s.Fetched
	r.Unique += s.Unique
	r.Duplicates += len(s.Duplicates)
	r.Pages += s.Pages
}
