package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"crewbase/pkg/requestcontext"
)

// Recorder captures audit entries as a best-effort side channel. A failed or
// dropped audit write must never obscure the caller's primary outcome, so
// Record has no error return; delivery problems are logged and counted.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// SyncRecorder appends entries to the store in the caller's goroutine.
// Used in tests and in deployments where the audit store shares availability
// with the primary store.
type SyncRecorder struct {
	store  Store
	logger *slog.Logger
}

func NewSyncRecorder(store Store, logger *slog.Logger) *SyncRecorder {
	return &SyncRecorder{store: store, logger: logger}
}

func (r *SyncRecorder) Record(ctx context.Context, entry Entry) {
	entry = stamp(ctx, entry)
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"error", err,
			"action", string(entry.Action),
			"request_id", entry.RequestID,
		)
	}
}

// BufferedRecorder decouples audit delivery from the primary operation via a
// bounded write-ahead buffer drained by a Worker. When the buffer is full the
// entry is dropped and counted rather than blocking the caller; the dropped
// counter is the reconciliation signal that the trail has gaps.
type BufferedRecorder struct {
	inbox   chan Entry
	logger  *slog.Logger
	dropped prometheus.Counter
}

func NewBufferedRecorder(buffer int, dropped prometheus.Counter, logger *slog.Logger) *BufferedRecorder {
	if buffer <= 0 {
		buffer = 1024
	}
	return &BufferedRecorder{
		inbox:   make(chan Entry, buffer),
		logger:  logger,
		dropped: dropped,
	}
}

func (r *BufferedRecorder) Record(ctx context.Context, entry Entry) {
	entry = stamp(ctx, entry)
	select {
	case r.inbox <- entry:
	default:
		if r.dropped != nil {
			r.dropped.Inc()
		}
		r.logger.ErrorContext(ctx, "audit buffer full, entry dropped",
			"action", string(entry.Action),
			"request_id", entry.RequestID,
		)
	}
}

// Inbox exposes the buffer for the draining Worker.
func (r *BufferedRecorder) Inbox() <-chan Entry {
	return r.inbox
}

// stamp fills server-assigned fields: identifier, timestamp, correlation ID.
func stamp(ctx context.Context, entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	return entry
}
