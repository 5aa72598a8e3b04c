//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"crewbase/internal/audit"
	auditpg "crewbase/internal/audit/store/postgres"
	id "crewbase/pkg/domain"
	"crewbase/pkg/testutil/containers"
)

const auditDDL = `
CREATE TABLE audit_outbox (
    id         UUID PRIMARY KEY,
    category   TEXT NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    relayed_at TIMESTAMPTZ
);
CREATE TABLE audit_entries (
    id         UUID PRIMARY KEY,
    actor_id   TEXT NOT NULL DEFAULT '',
    action     TEXT NOT NULL,
    status     TEXT NOT NULL,
    tenant_id  UUID,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
`

type PostgresAuditSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *auditpg.Store
	ctx   context.Context
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T(), auditDDL)
	s.store = auditpg.New(s.pg.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx, "audit_outbox", "audit_entries"))
}

func (s *PostgresAuditSuite) entry(actorID string, tenantID id.TenantID, at time.Time) audit.Entry {
	return audit.Entry{
		ID:        uuid.NewString(),
		Actor:     audit.Actor{ID: actorID, Role: "company"},
		Action:    audit.ActionInviteCreate,
		Target:    audit.Target{ID: uuid.NewString(), Type: "invitation"},
		Status:    audit.StatusSuccess,
		Details:   map[string]string{"email": "someone@example.com"},
		TenantID:  tenantID,
		Timestamp: at,
	}
}

func (s *PostgresAuditSuite) TestAppendWritesEntryAndOutboxTogether() {
	e := s.entry(uuid.NewString(), id.TenantID(uuid.New()), time.Now().UTC())
	s.Require().NoError(s.store.Append(s.ctx, e))

	got, err := s.store.ListByActor(s.ctx, e.Actor.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(e.ID, got[0].ID)
	s.Equal(e.Details, got[0].Details)

	pending, err := s.store.PendingOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(string(audit.CategoryCompliance), pending[0].Category)
}

func (s *PostgresAuditSuite) TestListFiltersByActorAndTenant() {
	now := time.Now().UTC()
	tenantA := id.TenantID(uuid.New())
	tenantB := id.TenantID(uuid.New())
	actor := uuid.NewString()

	s.Require().NoError(s.store.Append(s.ctx, s.entry(actor, tenantA, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.entry(actor, tenantB, now.Add(time.Second))))
	s.Require().NoError(s.store.Append(s.ctx, s.entry(uuid.NewString(), tenantA, now.Add(2*time.Second))))

	byActor, err := s.store.ListByActor(s.ctx, actor)
	s.Require().NoError(err)
	s.Len(byActor, 2)

	byTenant, err := s.store.ListByTenant(s.ctx, tenantA)
	s.Require().NoError(err)
	s.Len(byTenant, 2)
	for _, e := range byTenant {
		s.Equal(tenantA, e.TenantID)
	}
}

func (s *PostgresAuditSuite) TestListOrdersOldestFirst() {
	now := time.Now().UTC()
	actor := uuid.NewString()
	second := s.entry(actor, id.TenantID{}, now.Add(time.Minute))
	first := s.entry(actor, id.TenantID{}, now)
	s.Require().NoError(s.store.Append(s.ctx, second))
	s.Require().NoError(s.store.Append(s.ctx, first))

	got, err := s.store.ListByActor(s.ctx, actor)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(first.ID, got[0].ID)
	s.Equal(second.ID, got[1].ID)
}

func (s *PostgresAuditSuite) TestMarkRelayedExcludesFromPending() {
	e := s.entry(uuid.NewString(), id.TenantID{}, time.Now().UTC())
	s.Require().NoError(s.store.Append(s.ctx, e))

	pending, err := s.store.PendingOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)

	s.Require().NoError(s.store.MarkRelayed(s.ctx, []uuid.UUID{pending[0].ID}, time.Now()))

	pending, err = s.store.PendingOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}
