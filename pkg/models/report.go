package models

import (
	"fmt"
	"time"
)

// SyncReport is the per-run summary of an ingestion pass. It is built in
// memory by the orchestrator and printed/broadcast at the end of the run,
// never persisted.
type SyncReport struct {
	Scope             string    `json:"scope"`
	Fetched           int       `json:"fetched"`
	Created           int       `json:"created"`
	Updated           int       `json:"updated"`
	Unmatched         int       `json:"unmatched"`
	Errors            int       `json:"errors"`
	SkippedDistricts  int       `json:"skipped_districts"`
	Synthesized       int       `json:"synthesized_districts"`
	CoercionFallbacks int       `json:"coercion_fallbacks"`
	DistrictsWithData int       `json:"districts_with_data"`
	TotalDistricts    int       `json:"total_districts"`
	ExampleFailures   []string  `json:"example_failures,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Coverage is the fraction of known districts that have at least one
// persisted statistic row, 0 when the catalog is empty.
func (r *SyncReport) Coverage() float64 {
	if r.TotalDistricts == 0 {
		return 0
	}
	return float64(r.DistrictsWithData) / float64(r.TotalDistricts)
}

// Summary renders the end-of-run line printed by the sync command.
func (r *SyncReport) Summary() string {
	return fmt.Sprintf(
		"fetched=%d created=%d updated=%d unmatched=%d errors=%d skipped=%d synthesized=%d fallbacks=%d coverage=%d/%d (%.1f%%) took=%s",
		r.Fetched, r.Created, r.Updated, r.Unmatched, r.Errors,
		r.SkippedDistricts, r.Synthesized, r.CoercionFallbacks,
		r.DistrictsWithData, r.TotalDistricts, r.Coverage()*100,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	)
}
