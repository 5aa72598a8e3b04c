// Package postgres provides a PostgreSQL-backed invitation store.
//
// Expected schema:
//
//	CREATE TABLE invitations (
//	    id          UUID PRIMARY KEY,
//	    email       TEXT NOT NULL,
//	    first_name  TEXT NOT NULL DEFAULT '',
//	    last_name   TEXT NOT NULL DEFAULT '',
//	    role        TEXT NOT NULL,
//	    tenant_id   UUID,
//	    status      TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    expires_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX invitations_stale_idx ON invitations (expires_at) WHERE status = 'pending';
//	CREATE INDEX invitations_tenant_idx ON invitations (tenant_id);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crewbase/internal/invite"
	id "crewbase/pkg/domain"
	"crewbase/pkg/platform/sentinel"
)

// Store persists invitations in PostgreSQL.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed invitation store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const invitationColumns = `id, email, first_name, last_name, role, tenant_id, status, created_at, expires_at`

func (s *Store) Create(ctx context.Context, inv *invite.Invitation) error {
	query := `
		INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(inv.ID), inv.Email, inv.FirstName, inv.LastName,
		string(inv.Role), tenantParam(inv.TenantID), string(inv.Status),
		inv.CreatedAt, inv.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, invitationID id.InvitationID) (*invite.Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`,
		uuid.UUID(invitationID),
	)
	inv, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invitation not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return inv, nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*invite.Invitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE tenant_id = $1 ORDER BY created_at`,
		uuid.UUID(tenantID),
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations by tenant: %w", err)
	}
	defer rows.Close()
	return collectInvitations(rows)
}

func (s *Store) ListStalePending(ctx context.Context, now time.Time, limit int) ([]*invite.Invitation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale invitations: %w", err)
	}
	defer rows.Close()
	return collectInvitations(rows)
}

// Execute loads the invitation with SELECT ... FOR UPDATE, runs validate and
// mutate inside the transaction, and commits the updated status. The row lock
// serializes concurrent redemptions: the loser re-reads the winner's committed
// state and fails validation.
func (s *Store) Execute(ctx context.Context, invitationID id.InvitationID,
	validate func(*invite.Invitation) error,
	mutate func(*invite.Invitation),
) (*invite.Invitation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin invitation tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1 FOR UPDATE`,
		uuid.UUID(invitationID),
	)
	inv, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invitation not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lock invitation: %w", err)
	}

	if err := validate(inv); err != nil {
		return nil, err
	}
	mutate(inv)

	if _, err := tx.ExecContext(ctx,
		`UPDATE invitations SET status = $2 WHERE id = $1`,
		uuid.UUID(inv.ID), string(inv.Status),
	); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit invitation tx: %w", err)
	}
	return inv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (*invite.Invitation, error) {
	var (
		inv      invite.Invitation
		invID    uuid.UUID
		role     string
		tenantID sql.Null[uuid.UUID]
		status   string
	)
	if err := row.Scan(&invID, &inv.Email, &inv.FirstName, &inv.LastName,
		&role, &tenantID, &status, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
		return nil, err
	}
	inv.ID = id.InvitationID(invID)
	inv.Role = id.Tier(role)
	inv.Status = invite.Status(status)
	if tenantID.Valid {
		inv.TenantID = id.TenantID(tenantID.V)
	}
	return &inv, nil
}

func collectInvitations(rows *sql.Rows) ([]*invite.Invitation, error) {
	var out []*invite.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}
	return out, nil
}

func tenantParam(tenantID id.TenantID) any {
	if tenantID.IsNil() {
		return nil
	}
	return uuid.UUID(tenantID)
}
