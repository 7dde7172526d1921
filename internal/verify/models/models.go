// Package models holds the verification domain types shared by the pipeline,
// the stores, and the web layer.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks a verification run through its lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CanTransitionTo reports whether the status may move to target. Runs only
// move forward: running → completed or running → failed.
func (s RunStatus) CanTransitionTo(target RunStatus) bool {
	return s == RunStatusRunning && (target == RunStatusCompleted || target == RunStatusFailed)
}

// RowResult is the outcome of verifying a single spreadsheet row.
//
// Invariants:
//   - Match is computed exactly once, by the pipeline, as exact string
//     equality of SheetID and ExtractedID; the rendering layer never
//     recomputes it.
//   - ImagePath, when non-empty, is a bare filename inside the configured
//     download directory. Nobody below the pipeline checks that the file
//     still exists.
//   - RowID, SheetID, and ExtractedID are raw cell/extraction strings;
//     leading zeros and formatting are preserved end to end.
type RowResult struct {
	// Position is the 1-based spreadsheet row the record came from
	// (header row is 1). Results are ordered by it.
	Position int `json:"position"`

	RowID       string `json:"row_id"`
	SheetID     string `json:"sheet_id"`
	ExtractedID string `json:"extracted_id"`
	Match       bool   `json:"match"`
	ImagePath   string `json:"image_path,omitempty"`

	// Note carries upstream failure detail ("download failed: …",
	// "no national id found in text") for display next to the row.
	Note string `json:"note,omitempty"`
}

// Run is one full pass over the spreadsheet.
type Run struct {
	ID         uuid.UUID   `json:"id"`
	Status     RunStatus   `json:"status"`
	SourceFile string      `json:"source_file"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitzero"`
	Results    []RowResult `json:"results"`
}

// NewRun constructs a running Run with a fresh ID.
func NewRun(sourceFile string, now time.Time) *Run {
	return &Run{
		ID:         uuid.New(),
		Status:     RunStatusRunning,
		SourceFile: sourceFile,
		StartedAt:  now,
	}
}

// Complete marks the run finished with the given results.
func (r *Run) Complete(results []RowResult, now time.Time) {
	r.Status = RunStatusCompleted
	r.Results = results
	r.FinishedAt = now
}

// Fail marks the run failed; Results stay as whatever was gathered.
func (r *Run) Fail(now time.Time) {
	r.Status = RunStatusFailed
	r.FinishedAt = now
}

// Matches counts results with Match set.
func (r *Run) Matches() int {
	n := 0
	for _, res := range r.Results {
		if res.Match {
			n++
		}
	}
	return n
}
