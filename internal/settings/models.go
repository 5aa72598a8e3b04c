// Package settings manages platform-wide session behavior settings: the
// inactivity timeout and the logout warning countdown. Values apply to every
// tenant; only platform operators may change them.
package settings

import (
	dErrors "crewbase/pkg/domain-errors"
)

// SessionSettings are the tunable knobs of the inactivity watchdog.
type SessionSettings struct {
	// InactivityTimeoutMinutes is how long a session may sit idle before the
	// warning fires.
	InactivityTimeoutMinutes int `json:"inactivityTimeoutMinutes"`
	// WarningCountdownSeconds is how long the warning is shown before the
	// session is ended.
	WarningCountdownSeconds int `json:"warningCountdownSeconds"`
}

// Defaults are served whenever nothing has been stored yet.
func Defaults() SessionSettings {
	return SessionSettings{
		InactivityTimeoutMinutes: 15,
		WarningCountdownSeconds:  60,
	}
}

// Validate rejects non-positive values. Zero would end every session
// immediately; negatives are nonsense.
func (s SessionSettings) Validate() error {
	if s.InactivityTimeoutMinutes <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "inactivity timeout must be a positive number of minutes")
	}
	if s.WarningCountdownSeconds <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "warning countdown must be a positive number of seconds")
	}
	return nil
}

// Update carries a partial change: nil fields keep their current value.
type Update struct {
	InactivityTimeoutMinutes *int `json:"inactivityTimeoutMinutes,omitempty"`
	WarningCountdownSeconds  *int `json:"warningCountdownSeconds,omitempty"`
}

// Apply merges the update onto the current settings and returns the result.
func (u Update) Apply(current SessionSettings) SessionSettings {
	if u.InactivityTimeoutMinutes != nil {
		current.InactivityTimeoutMinutes = *u.InactivityTimeoutMinutes
	}
	if u.WarningCountdownSeconds != nil {
		current.WarningCountdownSeconds = *u.WarningCountdownSeconds
	}
	return current
}
