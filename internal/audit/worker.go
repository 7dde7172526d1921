package audit

import (
	"context"
	"log/slog"
)

// Emitter hands events to the worker without blocking the pipeline. When the
// buffer is full the event is dropped and logged; verification results never
// wait on audit persistence.
type Emitter struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	select {
	case e.inbox <- event:
	default:
		e.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"kind", string(event.Kind),
			"run_id", event.RunID.String(),
		)
	}
}

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

// NewWorker creates a worker with the given buffer size and an Emitter
// feeding it.
func NewWorker(store Store, buffer int, logger *slog.Logger) (*Worker, *Emitter) {
	inbox := make(chan Event, buffer)
	w := &Worker{store: store, inbox: inbox, logger: logger}
	return w, &Emitter{inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Store failures are logged and
// skipped; one bad event must not wedge the channel.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"kind", string(event.Kind),
					"error", err.Error(),
				)
			}
		}
	}
}
