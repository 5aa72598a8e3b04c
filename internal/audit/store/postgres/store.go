// Package postgres persists audit entries using the transactional outbox
// pattern. Entries are written to the outbox table and published to Kafka by
// the relay; the audit_entries table is the queryable materialization.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"crewbase/internal/audit"
	id "crewbase/pkg/domain"
)

// Schema:
//
//	CREATE TABLE audit_outbox (
//	    id         UUID PRIMARY KEY,
//	    category   TEXT NOT NULL,
//	    payload    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    relayed_at TIMESTAMPTZ
//	);
//
//	CREATE TABLE audit_entries (
//	    id         UUID PRIMARY KEY,
//	    actor_id   TEXT NOT NULL DEFAULT '',
//	    action     TEXT NOT NULL,
//	    status     TEXT NOT NULL,
//	    tenant_id  UUID,
//	    payload    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//
// No UPDATE or DELETE is ever issued against audit_entries.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes the entry to both the queryable table and the outbox in one
// transaction, so the relay can never publish an entry that is not durably
// recorded.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var tenant any
	if !entry.TenantID.IsNil() {
		tenant = entry.TenantID.String()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_entries (id, actor_id, action, status, tenant_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.Actor.ID, string(entry.Action), string(entry.Status), tenant, payload, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, category, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, string(entry.Action.Category()), payload, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

func (s *Store) ListByActor(ctx context.Context, actorID string) ([]audit.Entry, error) {
	return s.list(ctx, `SELECT payload FROM audit_entries WHERE actor_id = $1 ORDER BY created_at`, actorID)
}

func (s *Store) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]audit.Entry, error) {
	return s.list(ctx, `SELECT payload FROM audit_entries WHERE tenant_id = $1 ORDER BY created_at`, tenantID.String())
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var entry audit.Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal audit entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// OutboxRow is one unrelayed outbox record.
type OutboxRow struct {
	ID       uuid.UUID
	Category string
	Payload  []byte
}

// PendingOutbox returns up to limit unrelayed rows, oldest first.
func (s *Store) PendingOutbox(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, payload FROM audit_outbox
		WHERE relayed_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.Category, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkRelayed stamps the given outbox rows as published. Batch update with
// unnest for O(1) round trips instead of O(n).
func (s *Store) MarkRelayed(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, u := range ids {
		strs[i] = u.String()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET relayed_at = $2
		WHERE id = ANY($1::uuid[])
	`, pq.Array(strs), at)
	if err != nil {
		return fmt.Errorf("mark outbox relayed: %w", err)
	}
	return nil
}
