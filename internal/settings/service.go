package settings

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"crewbase/internal/audit"
	dErrors "crewbase/pkg/domain-errors"
	"crewbase/pkg/platform/sentinel"
	"crewbase/pkg/requestcontext"
)

// Service reads and updates the platform session settings. Reads fall back to
// defaults when nothing has been stored; updates are validated, merged over
// the current values, and audited.
type Service struct {
	store    Store
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewService(store Store, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, recorder: recorder, logger: logger}
}

// Get returns the effective settings: stored values, or defaults when none
// have ever been written.
func (s *Service) Get(ctx context.Context) (SessionSettings, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Defaults(), nil
		}
		return SessionSettings{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "settings lookup failed")
	}
	return current, nil
}

// Update merges a partial change onto the effective settings, validates the
// result, persists it, and audits the change with before/after values.
func (s *Service) Update(ctx context.Context, u Update) (SessionSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return SessionSettings{}, err
	}

	next := u.Apply(current)
	if err := next.Validate(); err != nil {
		return SessionSettings{}, err
	}
	if err := s.store.Put(ctx, next); err != nil {
		return SessionSettings{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "settings update failed")
	}

	s.recorder.Record(ctx, audit.Entry{
		Actor: audit.Actor{
			ID:   requestcontext.PrincipalID(ctx).String(),
			Role: requestcontext.Tier(ctx).String(),
		},
		Action: audit.ActionSettingsUpdate,
		Target: audit.Target{Type: "session_settings"},
		Status: audit.StatusSuccess,
		Details: map[string]string{
			"inactivity_timeout_minutes.old": strconv.Itoa(current.InactivityTimeoutMinutes),
			"inactivity_timeout_minutes.new": strconv.Itoa(next.InactivityTimeoutMinutes),
			"warning_countdown_seconds.old":  strconv.Itoa(current.WarningCountdownSeconds),
			"warning_countdown_seconds.new":  strconv.Itoa(next.WarningCountdownSeconds),
		},
	})
	s.logger.InfoContext(ctx, "session settings updated",
		"inactivity_timeout_minutes", next.InactivityTimeoutMinutes,
		"warning_countdown_seconds", next.WarningCountdownSeconds,
	)
	return next, nil
}
