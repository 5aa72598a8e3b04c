package epoch

import (
	"context"
	"database/sql"
	"fmt"

	id "crewbase/pkg/domain"
)

// PostgresStore persists epochs in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE session_epochs (
//	    principal_id UUID PRIMARY KEY,
//	    epoch        BIGINT NOT NULL DEFAULT 0
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Current(ctx context.Context, principalID id.PrincipalID) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx,
		`SELECT epoch FROM session_epochs WHERE principal_id = $1`,
		principalID.String(),
	).Scan(&epoch)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query session epoch: %w", err)
	}
	return epoch, nil
}

func (s *PostgresStore) Bump(ctx context.Context, principalID id.PrincipalID) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO session_epochs (principal_id, epoch)
		VALUES ($1, 1)
		ON CONFLICT (principal_id) DO UPDATE SET
			epoch = session_epochs.epoch + 1
		RETURNING epoch
	`, principalID.String()).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("bump session epoch: %w", err)
	}
	return epoch, nil
}
