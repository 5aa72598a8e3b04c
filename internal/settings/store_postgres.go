package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crewbase/pkg/platform/sentinel"
)

// PostgresStore persists the settings document in PostgreSQL, for
// deployments that run without Redis.
//
// Schema:
//
//	CREATE TABLE session_settings (
//	    id                         BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
//	    inactivity_timeout_minutes INT NOT NULL,
//	    warning_countdown_seconds  INT NOT NULL
//	);
//
// The CHECK on id pins the table to a single row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context) (SessionSettings, error) {
	var out SessionSettings
	err := s.db.QueryRowContext(ctx,
		`SELECT inactivity_timeout_minutes, warning_countdown_seconds FROM session_settings WHERE id`,
	).Scan(&out.InactivityTimeoutMinutes, &out.WarningCountdownSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionSettings{}, fmt.Errorf("session settings not stored: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return SessionSettings{}, fmt.Errorf("query session settings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Put(ctx context.Context, v SessionSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_settings (id, inactivity_timeout_minutes, warning_countdown_seconds)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			inactivity_timeout_minutes = EXCLUDED.inactivity_timeout_minutes,
			warning_countdown_seconds  = EXCLUDED.warning_countdown_seconds
	`, v.InactivityTimeoutMinutes, v.WarningCountdownSeconds)
	if err != nil {
		return fmt.Errorf("put session settings: %w", err)
	}
	return nil
}
