// Package idle implements the session inactivity watchdog: a deterministic
// state machine that tracks how long a session has gone without user activity
// and decides when to warn and when to end it.
//
// The machine itself never reads the wall clock. Every transition takes the
// current instant as an argument, so the same sequence of inputs always
// produces the same sequence of states regardless of scheduling.
package idle

import (
	"time"

	"crewbase/internal/settings"
)

// Phase is the watchdog state.
//
// Transitions:
//
//	active  --[idle >= timeout]--> warning
//	warning --[activity or acknowledge]--> active
//	warning --[countdown reaches zero]--> expired
//	expired is terminal
type Phase string

const (
	PhaseActive  Phase = "active"
	PhaseWarning Phase = "warning"
	PhaseExpired Phase = "expired"
)

// Monitor tracks one session's idleness. It is not safe for concurrent use;
// the Runner serializes access to it.
type Monitor struct {
	timeout      time.Duration
	countdown    time.Duration
	phase        Phase
	lastActivity time.Time
	warnedAt     time.Time
}

// NewMonitor starts an active monitor configured from the platform settings,
// with the given instant as the initial activity mark.
func NewMonitor(cfg settings.SessionSettings, now time.Time) *Monitor {
	return &Monitor{
		timeout:      time.Duration(cfg.InactivityTimeoutMinutes) * time.Minute,
		countdown:    time.Duration(cfg.WarningCountdownSeconds) * time.Second,
		phase:        PhaseActive,
		lastActivity: now,
	}
}

// Phase returns the current state.
func (m *Monitor) Phase() Phase {
	return m.phase
}

// Activity records user activity at the given instant. In active it resets
// the idle window; in warning it cancels the countdown and returns the
// monitor to active. Activity observed at the same instant the countdown
// would reach zero counts as a save: expiry only happens through Tick, so an
// activity input processed first always wins. Expired is terminal; late
// activity is ignored.
func (m *Monitor) Activity(now time.Time) {
	switch m.phase {
	case PhaseActive, PhaseWarning:
		m.phase = PhaseActive
		m.lastActivity = now
		m.warnedAt = time.Time{}
	case PhaseExpired:
	}
}

// Acknowledge is the explicit "I'm still here" from the warning dialog. It is
// activity by another name.
func (m *Monitor) Acknowledge(now time.Time) {
	m.Activity(now)
}

// Tick advances the machine to the given instant and returns the phase after
// the advance. It is the only input that can move the machine forward:
// active to warning when the idle window has elapsed, warning to expired when
// the countdown has. A single tick that jumps past both deadlines lands on
// expired.
func (m *Monitor) Tick(now time.Time) Phase {
	switch m.phase {
	case PhaseActive:
		if now.Sub(m.lastActivity) >= m.timeout {
			m.phase = PhaseWarning
			m.warnedAt = m.lastActivity.Add(m.timeout)
			// the tick may already be past the countdown too
			return m.Tick(now)
		}
	case PhaseWarning:
		if now.Sub(m.warnedAt) >= m.countdown {
			m.phase = PhaseExpired
		}
	case PhaseExpired:
	}
	return m.phase
}

// Remaining reports how long until the next deadline at the given instant:
// time left in the idle window when active, time left on the countdown when
// warning, zero when expired. Never negative.
func (m *Monitor) Remaining(now time.Time) time.Duration {
	var d time.Duration
	switch m.phase {
	case PhaseActive:
		d = m.timeout - now.Sub(m.lastActivity)
	case PhaseWarning:
		d = m.countdown - now.Sub(m.warnedAt)
	case PhaseExpired:
		return 0
	}
	if d < 0 {
		return 0
	}
	return d
}
