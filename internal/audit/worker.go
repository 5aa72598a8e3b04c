package audit

import (
	"context"
	"log/slog"
)

// Worker drains a recorder's buffer and persists entries. Append failures are
// logged and the entry is retried once before being abandoned; the primary
// operation that emitted the entry has already returned by this point.
type Worker struct {
	store  Store
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case entry := <-w.inbox:
			w.append(ctx, entry)
		}
	}
}

// drain flushes whatever is already buffered at shutdown, with a background
// context because the run context is done.
func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.inbox:
			w.append(context.Background(), entry)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, entry Entry) {
	if err := w.store.Append(ctx, entry); err == nil {
		return
	} else if retryErr := w.store.Append(ctx, entry); retryErr != nil {
		w.logger.Error("audit entry lost after retry",
			"error", retryErr,
			"first_error", err,
			"action", string(entry.Action),
			"entry_id", entry.ID,
		)
	}
}
