// Package audit records what each verification run did: when it started,
// what it concluded, and which rows disagreed with the spreadsheet. Events
// flow through a buffered channel into a store so the pipeline never blocks
// on audit persistence.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind labels an audit event.
type Kind string

const (
	KindRunStarted   Kind = "run_started"
	KindRunCompleted Kind = "run_completed"
	KindRunFailed    Kind = "run_failed"
	KindRowMismatch  Kind = "row_mismatch"
)

// Event is one audit record tied to a verification run.
type Event struct {
	ID     uuid.UUID `json:"id"`
	RunID  uuid.UUID `json:"run_id"`
	Kind   Kind      `json:"kind"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// NewEvent builds an event with a fresh ID and the current time.
func NewEvent(runID uuid.UUID, kind Kind, detail string) Event {
	return Event{
		ID:     uuid.New(),
		RunID:  runID,
		Kind:   kind,
		Detail: detail,
		At:     time.Now().UTC(),
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]Event, error)
}
