package idle

import (
	"context"
	"log/slog"
	"time"
)

// Hooks are the runner's outputs: called from the runner goroutine when the
// watchdog changes phase. Nil hooks are skipped.
type Hooks struct {
	OnWarning func(ctx context.Context)
	OnExpired func(ctx context.Context)
}

// Runner drives a Monitor from real inputs: an activity channel fed by the
// transport layer and a periodic tick. All monitor access happens on the
// runner goroutine, which is what makes the unsynchronized Monitor safe.
//
// Pending activity is always drained before a tick is applied. An activity
// event and a tick that arrive in the same poll therefore resolve in the
// user's favor, keeping the "activity beats expiry" rule even under
// scheduling jitter.
type Runner struct {
	monitor  *Monitor
	clock    func() time.Time
	interval time.Duration
	activity chan time.Time
	hooks    Hooks
	logger   *slog.Logger
}

// NewRunner wraps a monitor. interval is how often the watchdog re-evaluates;
// it bounds how late a warning or expiry can fire. clock defaults to
// time.Now.
func NewRunner(monitor *Monitor, interval time.Duration, hooks Hooks, logger *slog.Logger, clock func() time.Time) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &Runner{
		monitor:  monitor,
		clock:    clock,
		interval: interval,
		activity: make(chan time.Time, 64),
		hooks:    hooks,
		logger:   logger,
	}
}

// Activity reports user activity to the watchdog. Non-blocking: if the
// buffer is full the event is dropped, which is harmless because a newer
// activity timestamp supersedes older ones anyway.
func (r *Runner) Activity() {
	select {
	case r.activity <- r.clock():
	default:
	}
}

// Run evaluates the watchdog until the context is cancelled or the session
// expires.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case at := <-r.activity:
			r.monitor.Activity(at)
		case <-ticker.C:
			if done := r.step(ctx); done {
				return
			}
		}
	}
}

// step drains buffered activity, then advances the monitor. Returns true when
// the session has expired and the runner should stop.
func (r *Runner) step(ctx context.Context) bool {
	for {
		select {
		case at := <-r.activity:
			r.monitor.Activity(at)
		default:
			before := r.monitor.Phase()
			after := r.monitor.Tick(r.clock())
			if after == before {
				return after == PhaseExpired
			}
			switch after {
			case PhaseWarning:
				r.logger.DebugContext(ctx, "session idle warning")
				if r.hooks.OnWarning != nil {
					r.hooks.OnWarning(ctx)
				}
			case PhaseExpired:
				r.logger.InfoContext(ctx, "session expired from inactivity")
				if r.hooks.OnExpired != nil {
					r.hooks.OnExpired(ctx)
				}
				return true
			}
			return false
		}
	}
}
